package steamweb

// Method is a logical Web API method, independent of the auth mode used to call it.
type Method string

const (
	GetFriendsList       Method = "GetFriendsList"
	GetPlayerSummaries   Method = "GetPlayerSummaries"
	GetPlayerLinkDetails Method = "GetPlayerLinkDetails"
	ResolveVanityURL     Method = "ResolveVanityURL"
)

// Param is a single query parameter. A nil Value is omitted from the query.
type Param struct {
	Key   string
	Value any
}

// Endpoint is a concrete api path along with the parameters always sent to it.
type Endpoint struct {
	Path     string
	Defaults []Param
}

type variantKind int

const (
	variantPerMode variantKind = iota
	variantUnified
)

// endpointVariant holds either one endpoint per auth mode or a single shared endpoint.
type endpointVariant struct {
	kind    variantKind
	key     Endpoint
	token   Endpoint
	unified Endpoint
}

var endpoints = map[Method]endpointVariant{ //nolint:gochecknoglobals
	GetFriendsList: {
		kind: variantPerMode,
		key: Endpoint{
			Path:     "/ISteamUser/GetFriendList/v1/",
			Defaults: []Param{{Key: "relationship", Value: "friend"}},
		},
		token: Endpoint{Path: "/IFriendsListService/GetFriendsList/v1/"},
	},
	GetPlayerSummaries: {
		kind:  variantPerMode,
		key:   Endpoint{Path: "/ISteamUser/GetPlayerSummaries/v2/"},
		token: Endpoint{Path: "/ISteamUserOAuth/GetUserSummaries/v1/"},
	},
	GetPlayerLinkDetails: {
		kind:    variantUnified,
		unified: Endpoint{Path: "/IPlayerService/GetPlayerLinkDetails/v1/"},
	},
	ResolveVanityURL: {
		kind:    variantUnified,
		unified: Endpoint{Path: "/ISteamUser/ResolveVanityURL/v1/"},
	},
}

// Resolve maps a method and auth mode to the endpoint that serves it.
func Resolve(method Method, mode Mode) (Endpoint, error) {
	variant, found := endpoints[method]
	if !found {
		return Endpoint{}, ErrUnknownMethod
	}

	switch variant.kind {
	case variantUnified:
		return variant.unified, nil
	case variantPerMode:
		if mode == ModeToken {
			return variant.token, nil
		}

		return variant.key, nil
	default:
		return Endpoint{}, ErrUnknownMethod
	}
}

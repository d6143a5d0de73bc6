package marketplace

// AccountType identifies one of the two seller accounts on the marketplace.
// Accounts are configured at process start and never created at runtime.
type AccountType string

const (
	// AccountTypeMain is the seller's self-fulfilled account
	AccountTypeMain AccountType = "MAIN"
	// AccountTypeFBE is the marketplace-fulfilled account
	AccountTypeFBE AccountType = "FBE"
)

// IsValid returns true if the account type is one of the two known accounts
func (a AccountType) IsValid() bool {
	switch a {
	case AccountTypeMain, AccountTypeFBE:
		return true
	default:
		return false
	}
}

// String returns the string representation of AccountType
func (a AccountType) String() string {
	return string(a)
}

// AllAccountTypes returns both seller accounts in a stable order
func AllAccountTypes() []AccountType {
	return []AccountType{AccountTypeMain, AccountTypeFBE}
}

// EndpointClass groups marketplace API endpoints sharing one documented
// rate limit tier. Catalog and order endpoints are limited independently.
type EndpointClass string

const (
	// EndpointClassCatalog covers product and offer read endpoints
	EndpointClassCatalog EndpointClass = "catalog"
	// EndpointClassOrders covers order read endpoints
	EndpointClassOrders EndpointClass = "orders"
)

// String returns the string representation of EndpointClass
func (c EndpointClass) String() string {
	return string(c)
}

// ResourceKind identifies a paginated marketplace resource
type ResourceKind string

const (
	ResourceKindProducts ResourceKind = "products"
	ResourceKindOffers   ResourceKind = "offers"
	ResourceKindOrders   ResourceKind = "orders"
)

// IsValid returns true if the resource kind is known
func (r ResourceKind) IsValid() bool {
	switch r {
	case ResourceKindProducts, ResourceKindOffers, ResourceKindOrders:
		return true
	default:
		return false
	}
}

// String returns the string representation of ResourceKind
func (r ResourceKind) String() string {
	return string(r)
}

// EndpointClass returns the rate limit class the resource's endpoints belong to
func (r ResourceKind) EndpointClass() EndpointClass {
	if r == ResourceKindOrders {
		return EndpointClassOrders
	}
	return EndpointClassCatalog
}

// IsCatalog returns true for resources persisted as catalog items
func (r ResourceKind) IsCatalog() bool {
	return r == ResourceKindProducts || r == ResourceKindOffers
}

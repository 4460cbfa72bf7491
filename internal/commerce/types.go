package commerce

// The payloads below are the subsets of the shopper API documents the
// storefront reads. Unknown fields are ignored.

type Image struct {
	Alt     string `json:"alt,omitempty"`
	DisBase string `json:"disBaseLink,omitempty"`
	Link    string `json:"link"`
	Title   string `json:"title,omitempty"`
}

type ImageGroup struct {
	Images   []Image `json:"images"`
	ViewType string  `json:"viewType"`
}

type Category struct {
	ID               string     `json:"id"`
	Name             string     `json:"name,omitempty"`
	Description      string     `json:"description,omitempty"`
	ParentCategoryID string     `json:"parentCategoryId,omitempty"`
	PageTitle        string     `json:"pageTitle,omitempty"`
	PageDescription  string     `json:"pageDescription,omitempty"`
	Image            string     `json:"image,omitempty"`
	Categories       []Category `json:"categories,omitempty"`
}

type VariationAttributeValue struct {
	Name      string `json:"name,omitempty"`
	Value     string `json:"value"`
	Orderable bool   `json:"orderable"`
}

type VariationAttribute struct {
	ID     string                    `json:"id"`
	Name   string                    `json:"name,omitempty"`
	Values []VariationAttributeValue `json:"values,omitempty"`
}

type Variant struct {
	ProductID       string            `json:"productId"`
	Price           float64           `json:"price,omitempty"`
	Orderable       bool              `json:"orderable"`
	VariationValues map[string]string `json:"variationValues,omitempty"`
}

type Product struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name,omitempty"`
	Brand               string               `json:"brand,omitempty"`
	Currency            string               `json:"currency,omitempty"`
	Price               float64              `json:"price,omitempty"`
	PriceMax            float64              `json:"priceMax,omitempty"`
	PrimaryCategoryID   string               `json:"primaryCategoryId,omitempty"`
	ShortDescription    string               `json:"shortDescription,omitempty"`
	LongDescription     string               `json:"longDescription,omitempty"`
	ImageGroups         []ImageGroup         `json:"imageGroups,omitempty"`
	Variants            []Variant            `json:"variants,omitempty"`
	VariationAttributes []VariationAttribute `json:"variationAttributes,omitempty"`
}

type ProductResult struct {
	Data  []Product `json:"data"`
	Limit int       `json:"limit"`
	Total int       `json:"total"`
}

type ProductSearchHit struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	Price       float64 `json:"price,omitempty"`
	PriceMax    float64 `json:"priceMax,omitempty"`
	HitType     string  `json:"hitType,omitempty"`
	Orderable   bool    `json:"orderable"`
	Image       *Image  `json:"image,omitempty"`
}

type RefinementValue struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	HitCount int    `json:"hitCount"`
}

type ProductSearchRefinement struct {
	AttributeID string            `json:"attributeId"`
	Label       string            `json:"label,omitempty"`
	Values      []RefinementValue `json:"values,omitempty"`
}

type SortingOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type ProductSearchResult struct {
	Limit                 int                       `json:"limit"`
	Offset                int                       `json:"offset"`
	Total                 int                       `json:"total"`
	Query                 string                    `json:"query"`
	Hits                  []ProductSearchHit        `json:"hits,omitempty"`
	Refinements           []ProductSearchRefinement `json:"refinements,omitempty"`
	SelectedRefinements   map[string]string         `json:"selectedRefinements,omitempty"`
	SortingOptions        []SortingOption           `json:"sortingOptions,omitempty"`
	SelectedSortingOption string                    `json:"selectedSortingOption,omitempty"`
}

type ProductItem struct {
	ItemID              string        `json:"itemId,omitempty"`
	ProductID           string        `json:"productId"`
	ProductName         string        `json:"productName,omitempty"`
	Quantity            float64       `json:"quantity"`
	Price               float64       `json:"price,omitempty"`
	BasePrice           float64       `json:"basePrice,omitempty"`
	BundledProductItems []ProductItem `json:"bundledProductItems,omitempty"`
}

type Basket struct {
	BasketID        string        `json:"basketId"`
	Currency        string        `json:"currency,omitempty"`
	ProductItems    []ProductItem `json:"productItems,omitempty"`
	ProductSubTotal float64       `json:"productSubTotal,omitempty"`
	ProductTotal    float64       `json:"productTotal,omitempty"`
	ShippingTotal   float64       `json:"shippingTotal,omitempty"`
	TaxTotal        float64       `json:"taxTotal,omitempty"`
	OrderTotal      float64       `json:"orderTotal,omitempty"`
}

// BundledItemInput is a child of a bundle added to the basket.
type BundledItemInput struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
}

type ItemInput struct {
	ProductID           string             `json:"productId,omitempty"`
	Quantity            float64            `json:"quantity"`
	BundledProductItems []BundledItemInput `json:"bundledProductItems,omitempty"`
}

package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry with named attributes and SKU-level variants
type Product struct {
	ID          uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string             `gorm:"size:100;not null;uniqueIndex:uq_products_code" json:"code"`
	SKU         string             `gorm:"size:100;index" json:"sku"`
	Name        string             `gorm:"size:300;not null" json:"name"`
	MetaTitle   string             `gorm:"size:300" json:"metaTitle,omitempty"`
	Description string             `gorm:"type:text" json:"description,omitempty"`
	Category    string             `gorm:"size:200" json:"category,omitempty"`
	Brand       string             `gorm:"size:200" json:"brand,omitempty"`
	ImageURL    string             `gorm:"size:500" json:"imageUrl,omitempty"`
	Price       *decimal.Decimal   `gorm:"type:numeric(18,4)" json:"price,omitempty"`
	HasVariants bool               `gorm:"not null;default:false" json:"hasVariants"`
	Attributes  []ProductAttribute `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"attributes"`
	Variants    []ProductVariant   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`
	Audit
}

type ProductAttribute struct {
	ID        uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID               `gorm:"type:uuid;not null;index" json:"productId"`
	Name      string                  `gorm:"size:100;not null" json:"name"`
	Values    []ProductAttributeValue `gorm:"foreignKey:ProductAttributeID;constraint:OnDelete:CASCADE" json:"values"`
}

type ProductAttributeValue struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductAttributeID uuid.UUID `gorm:"type:uuid;not null;index" json:"productAttributeId"`
	Value              string    `gorm:"size:200;not null" json:"value"`
}

// ProductVariant is a SKU-level variant picking one value per attribute
type ProductVariant struct {
	ID              uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID                      `gorm:"type:uuid;not null;index" json:"productId"`
	SKU             string                         `gorm:"size:100" json:"sku"`
	Price           decimal.Decimal                `gorm:"type:numeric(18,4);not null;default:0" json:"price"`
	Weight          decimal.Decimal                `gorm:"type:numeric(18,4);not null;default:0" json:"weight"`
	Length          decimal.Decimal                `gorm:"type:numeric(18,4);not null;default:0" json:"length"`
	Width           decimal.Decimal                `gorm:"type:numeric(18,4);not null;default:0" json:"width"`
	Height          decimal.Decimal                `gorm:"type:numeric(18,4);not null;default:0" json:"height"`
	StockQty        int64                          `gorm:"not null;default:0" json:"stockQty"`
	Images          []ProductVariantImage          `gorm:"foreignKey:ProductVariantID;constraint:OnDelete:CASCADE" json:"images"`
	AttributeValues []ProductVariantAttributeValue `gorm:"foreignKey:ProductVariantID;constraint:OnDelete:CASCADE" json:"attributeValues"`
	Audit
}

type ProductVariantImage struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductVariantID uuid.UUID `gorm:"type:uuid;not null;index" json:"productVariantId"`
	ImageURL         string    `gorm:"size:500;not null" json:"imageUrl"`
}

type ProductVariantAttributeValue struct {
	ID                      uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	ProductVariantID        uuid.UUID              `gorm:"type:uuid;not null;index" json:"productVariantId"`
	ProductAttributeValueID uuid.UUID              `gorm:"type:uuid;not null;index" json:"productAttributeValueId"`
	AttributeValue          *ProductAttributeValue `gorm:"foreignKey:ProductAttributeValueID;constraint:OnDelete:CASCADE" json:"attributeValue,omitempty"`
}

// ProductSpec is the raw catalog payload a caller supplies instead of a product id
type ProductSpec struct {
	Code        string
	SKU         string
	Name        string
	MetaTitle   string
	Description string
	Category    string
	Brand       string
	ImageURL    string
	Price       *decimal.Decimal
	HasVariants bool
	Attributes  []AttributeSpec
	Variants    []VariantSpec
}

type AttributeSpec struct {
	Name   string
	Values []string
}

type VariantSpec struct {
	SKU             string
	Price           decimal.Decimal
	Weight          decimal.Decimal
	Length          decimal.Decimal
	Width           decimal.Decimal
	Height          decimal.Decimal
	StockQty        int64
	AttributeValues map[string]string // attribute name -> value
	ImageURLs       []string
}

// NewProduct materializes the full product graph with ids assigned up front so
// the whole graph can be inserted in one statement batch.
func NewProduct(spec ProductSpec, actor string) (*Product, error) {
	product := &Product{
		ID:          uuid.New(),
		Code:        spec.Code,
		SKU:         spec.SKU,
		Name:        spec.Name,
		MetaTitle:   spec.MetaTitle,
		Description: spec.Description,
		Category:    spec.Category,
		Brand:       spec.Brand,
		ImageURL:    spec.ImageURL,
		Price:       spec.Price,
		HasVariants: spec.HasVariants || len(spec.Variants) > 0,
		Audit:       Audit{CreatedBy: actor},
	}

	// attribute name -> value -> value id
	valueIDs := make(map[string]map[string]uuid.UUID, len(spec.Attributes))
	for _, a := range spec.Attributes {
		attr := ProductAttribute{ID: uuid.New(), ProductID: product.ID, Name: a.Name}
		valueIDs[a.Name] = make(map[string]uuid.UUID, len(a.Values))
		for _, v := range a.Values {
			value := ProductAttributeValue{ID: uuid.New(), ProductAttributeID: attr.ID, Value: v}
			attr.Values = append(attr.Values, value)
			valueIDs[a.Name][v] = value.ID
		}
		product.Attributes = append(product.Attributes, attr)
	}

	for _, vs := range spec.Variants {
		if vs.StockQty < 0 || vs.Price.IsNegative() {
			return nil, ErrInvalidQuantity
		}
		variant := ProductVariant{
			ID:        uuid.New(),
			ProductID: product.ID,
			SKU:       vs.SKU,
			Price:     vs.Price,
			Weight:    vs.Weight,
			Length:    vs.Length,
			Width:     vs.Width,
			Height:    vs.Height,
			StockQty:  vs.StockQty,
			Audit:     Audit{CreatedBy: actor},
		}
		for _, url := range vs.ImageURLs {
			variant.Images = append(variant.Images, ProductVariantImage{
				ID:               uuid.New(),
				ProductVariantID: variant.ID,
				ImageURL:         url,
			})
		}
		for name, value := range vs.AttributeValues {
			id, ok := valueIDs[name][value]
			if !ok {
				return nil, fmt.Errorf("%w: %s=%s", ErrUnknownAttributeValue, name, value)
			}
			variant.AttributeValues = append(variant.AttributeValues, ProductVariantAttributeValue{
				ID:                      uuid.New(),
				ProductVariantID:        variant.ID,
				ProductAttributeValueID: id,
			})
		}
		product.Variants = append(product.Variants, variant)
	}

	return product, nil
}

// StockSummary returns the total stock across variants and the stock value
// (sum of price * stock)
func (p *Product) StockSummary() (quantity int64, total decimal.Decimal) {
	total = decimal.Zero
	for _, v := range p.Variants {
		quantity += v.StockQty
		total = total.Add(v.Price.Mul(decimal.NewFromInt(v.StockQty)))
	}
	return quantity, total
}

// Package domain 商品目录的领域模型
package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound 商品不存在
var ErrProductNotFound = errors.New("product not found")

// StringList 以 JSON 数组存储的字符串列表字段
type StringList []string

// Value 实现 driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
	return json.Unmarshal(data, l)
}

// Product 商品实体
type Product struct {
	// 商品 ID
	ID string `gorm:"column:id;type:varchar(36);primaryKey" json:"_id"`
	// 名称
	Name string `gorm:"column:name;type:varchar(255);index;not null" json:"name"`
	// 描述
	Description string `gorm:"column:description;type:text" json:"description"`
	// 单价
	Price decimal.Decimal `gorm:"column:price;type:decimal(20,2);not null" json:"price"`
	// 图片 URL 列表
	Images StringList `gorm:"column:images;type:json" json:"image"`
	// 一级分类
	Category string `gorm:"column:category;type:varchar(100);index" json:"category"`
	// 二级分类
	SubCategory string `gorm:"column:sub_category;type:varchar(100)" json:"subCategory"`
	// 可选尺码
	Sizes StringList `gorm:"column:sizes;type:json" json:"sizes"`
	// 是否精选
	Bestseller bool `gorm:"column:bestseller;index;default:false" json:"bestseller"`

	CreatedAt time.Time `json:"date"`
	UpdatedAt time.Time `json:"-"`
}

func (Product) TableName() string { return "products" }

// HasSize 商品是否提供指定尺码
func (p *Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// ProductRepository 商品仓储接口
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	// 按 ID 集合批量获取
	GetByIDs(ctx context.Context, ids []string) ([]*Product, error)
	// 全量列表，创建时间倒序
	List(ctx context.Context) ([]*Product, error)
	// 精选商品，创建时间倒序，limit 限制条数
	ListBestsellers(ctx context.Context, limit int) ([]*Product, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// Package domain 包含用户与地址的领域模型
package domain

import (
	"context"
	"errors"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role 用户角色
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var pincodePattern = regexp.MustCompile(`^\d{6}$`)

// ErrInvalidPincode 邮编格式错误
var ErrInvalidPincode = errors.New("invalid pincode")

// Address 收货地址
type Address struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    string `gorm:"column:user_id;type:varchar(36);index;not null" json:"-"`
	Street    string `gorm:"column:street;type:varchar(255)" json:"street"`
	City      string `gorm:"column:city;type:varchar(100)" json:"city"`
	State     string `gorm:"column:state;type:varchar(100)" json:"state"`
	Country   string `gorm:"column:country;type:varchar(100)" json:"country"`
	Pincode   string `gorm:"column:pincode;type:varchar(6)" json:"pincode"`
	IsDefault bool   `gorm:"column:is_default;default:false" json:"isDefault"`
}

func (Address) TableName() string { return "addresses" }

// Validate 校验地址字段
func (a *Address) Validate() error {
	if a.Pincode != "" && !pincodePattern.MatchString(a.Pincode) {
		return ErrInvalidPincode
	}
	return nil
}

// User 用户实体
// 密码账号与 Google 联合登录账号共用一张表，Google 账号无密码哈希
type User struct {
	// 用户 ID
	ID string `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	// 姓名
	Name string `gorm:"column:name;type:varchar(100);index;not null" json:"name"`
	// 邮箱，登录标识
	Email string `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	// bcrypt 密码哈希
	PasswordHash string `gorm:"column:password_hash;type:varchar(100)" json:"-"`
	// 手机号
	PhoneNo string `gorm:"column:phone_no;type:varchar(20)" json:"phoneNo"`
	// 收货地址列表
	Addresses []Address `gorm:"foreignKey:UserID" json:"address"`
	// 当前有效的 refresh token，登出或轮换时覆盖
	RefreshToken string `gorm:"column:refresh_token;type:varchar(512)" json:"-"`
	// 角色
	Role Role `gorm:"column:role;type:varchar(10);default:user" json:"role"`
	// Google 账号主体 ID
	GoogleID *string `gorm:"column:google_id;type:varchar(64);uniqueIndex" json:"-"`
	// 是否 Google 联合登录账号
	IsGoogleUser bool `gorm:"column:is_google_user;default:false" json:"isGoogleUser"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// SetPassword 以 bcrypt 哈希设置密码
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword 校验明文密码
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// LinkGoogle 将已有邮箱账号关联 Google 主体
func (u *User) LinkGoogle(googleID string) {
	u.GoogleID = &googleID
	u.IsGoogleUser = true
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserRepository 用户仓储接口
type UserRepository interface {
	// 创建用户
	Create(ctx context.Context, user *User) error
	// 按 ID 获取用户
	GetByID(ctx context.Context, id string) (*User, error)
	// 按邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*User, error)
	// 按 Google 主体 ID 或邮箱获取用户
	GetByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*User, error)
	// 保存用户（含地址）
	Save(ctx context.Context, user *User) error
	// 覆盖 refresh token，空串表示清除
	SaveRefreshToken(ctx context.Context, userID, token string) error
	// 更新密码哈希
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

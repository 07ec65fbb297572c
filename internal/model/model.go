// Package model содержит доменные сущности сервиса кампусной торговой площадки.
package model

import (
	"fmt"
	"time"
)

// Role описывает роль пользователя в системе.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User представляет зарегистрированного пользователя площадки.
type User struct {
	ID           int64
	StudentID    string
	Username     string
	PasswordHash string
	Nickname     string
	ContactInfo  string
	Enabled      bool
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ListingStatus описывает состояние объявления.
type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "AVAILABLE"
	ListingStatusSold      ListingStatus = "SOLD"
	ListingStatusRemoved   ListingStatus = "REMOVED"
)

// ParseListingStatus разбирает строковое представление статуса объявления.
func ParseListingStatus(s string) (ListingStatus, error) {
	switch st := ListingStatus(s); st {
	case ListingStatusAvailable, ListingStatusSold, ListingStatusRemoved:
		return st, nil
	}
	return "", fmt.Errorf("unknown listing status %q", s)
}

// Listing представляет объявление о продаже товара.
// SellerName денормализуется при выборке и не хранится в таблице объявлений.
type Listing struct {
	ID            int64
	Title         string
	Price         float64
	Description   string
	TradeLocation string
	ImagePaths    []string
	Status        ListingStatus
	SellerID      int64
	SellerName    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderStatus описывает состояние заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus разбирает строковое представление статуса заказа.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Order представляет сделку между покупателем и продавцом по одному объявлению.
// Продавец фиксируется в момент создания заказа и далее не меняется.
type Order struct {
	ID           int64
	ListingID    int64
	ListingTitle string
	BuyerID      int64
	BuyerName    string
	SellerID     int64
	SellerName   string
	Status       OrderStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NotificationType описывает тип уведомления.
type NotificationType string

const (
	NotificationListingInterest   NotificationType = "LISTING_INTEREST"
	NotificationOrderStatusChange NotificationType = "ORDER_STATUS_CHANGE"
	NotificationSystem            NotificationType = "SYSTEM"
)

// Notification представляет адресное уведомление пользователя.
type Notification struct {
	ID         int64
	Type       NotificationType
	Title      string
	Body       string
	ReceiverID int64
	ListingID  *int64
	OrderID    *int64
	Read       bool
	CreatedAt  time.Time
}

// Statistics содержит сводные показатели площадки для административной панели.
type Statistics struct {
	Users    int64 `json:"users"`
	Listings int64 `json:"listings"`
	Orders   int64 `json:"orders"`
}

// Package models holds the ERP domain records the assistant operates on.
package models

import "time"

// Entity names used by the data-access layer.
const (
	EntityEmployee        = "employees"
	EntityCustomer        = "customers"
	EntityVale            = "vales"
	EntityOrder           = "orders"
	EntityJewelry         = "jewelry"
	EntityInventoryItem   = "inventory"
	EntityCashTransaction = "cash_transactions"
	EntityNote            = "notes"
)

// Vale lifecycle statuses.
const (
	ValeStatusPending  = "pending"
	ValeStatusApproved = "approved"
	ValeStatusPaid     = "paid"
)

// Order lifecycle statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusDelivered = "delivered"
)

// Cash transaction directions.
const (
	CashIn  = "entrada"
	CashOut = "saida"
)

type Employee struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Role   string  `json:"role"`
	Salary float64 `json:"salary"`
	Active bool    `json:"active"`
}

type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Vale is a cash advance issued to an employee, pending until approved and paid.
type Vale struct {
	ID         int64      `json:"id"`
	EmployeeID int64      `json:"employeeId"`
	Amount     float64    `json:"amount"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	PaidAt     *time.Time `json:"paidAt,omitempty"`
}

type Order struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customerId"`
	TotalPrice float64   `json:"totalPrice"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Jewelry struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

type InventoryItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"minQuantity"`
}

type CashTransaction struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	CategoryID  int64     `json:"categoryId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

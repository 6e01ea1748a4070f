package services

import "errors"

// Error kategori InvalidRequest / Conflict. NotFound memakai
// gorm.ErrRecordNotFound langsung supaya controller cukup errors.Is.
var (
	ErrItemsRequired          = errors.New("at least one order item is required")
	ErrInvalidQuantity        = errors.New("item quantity must be at least 1")
	ErrTableOrSessionRequired = errors.New("table_id or session_id is required")
	ErrInvalidTableStatus     = errors.New("table status must be AVAILABLE or OCCUPIED")
	ErrNoOrdersToBill         = errors.New("no orders to bill")
	ErrBillAlreadyPaid        = errors.New("bill already paid")
)

package billing

import (
	"errors"
	"fmt"
)

var (
	ErrInvoiceNotFound     = errors.New("billing: invoice not found")
	ErrAppointmentNotFound = errors.New("billing: appointment not found")
	ErrPackageNotFound     = errors.New("billing: package not found")
	ErrInvalidInput        = errors.New("billing: invalid input")
	ErrInvalidState        = errors.New("billing: invalid invoice state")
	ErrAlreadyExists       = errors.New("billing: invoice already exists for appointment")
	ErrAlreadyPaid         = errors.New("billing: invoice already paid")
	ErrAlreadyVoid         = errors.New("billing: invoice already void")
	ErrOverpayment         = errors.New("billing: payment exceeds amount due")
	ErrInvalidAmount       = errors.New("billing: payment amount must be positive")
	ErrNotAPackage         = errors.New("billing: catalog item is not a package")
	ErrEmptyPackage        = errors.New("billing: package has no items")
)

var domainErrors = []error{
	ErrInvoiceNotFound,
	ErrAppointmentNotFound,
	ErrPackageNotFound,
	ErrInvalidInput,
	ErrInvalidState,
	ErrAlreadyExists,
	ErrAlreadyPaid,
	ErrAlreadyVoid,
	ErrOverpayment,
	ErrInvalidAmount,
	ErrNotAPackage,
	ErrEmptyPackage,
}

// wrapStoreError keeps domain errors as they are and adds context to everything else.
func wrapStoreError(op string, err error) error {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

package models

// Status: kayıt yaşam döngüsü. Pasif kayıtlar silinmez, geçmiş satış ve
// reçete referansları için sorgulanabilir kalır.
type Status string

const (
	StatusActive      Status = "active"
	StatusDeactivated Status = "deactivated"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusDeactivated
}

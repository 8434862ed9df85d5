// Package httpx handler'ların ortak kullandığı istek yardımcıları.
package httpx

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	OperatorHeader = "X-Operator"
	DefaultOp      = "sistem"
	defaultDays    = 30
)

// Operator işlemi yapan kişi (X-Operator başlığı, yoksa "sistem")
func Operator(c *fiber.Ctx) string {
	if op := strings.TrimSpace(c.Get(OperatorHeader)); op != "" {
		return op
	}
	return DefaultOp
}

// parseID tüm metni pozitif tamsayı olarak çözer ("12abc" geçersiz)
func parseID(raw string) (uint, bool) {
	v, err := strconv.ParseUint(raw, 10, strconv.IntSize)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// ParamID :id parametresini çözer
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, ok := parseID(c.Params(name))
	if !ok {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz "+name)
	}
	return id, nil
}

// QueryUint opsiyonel pozitif tamsayı query parametresi
func QueryUint(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, ok := parseID(raw)
	if !ok {
		return nil, fiber.NewError(fiber.StatusBadRequest, name+" geçersiz")
	}
	return &v, nil
}

// QueryInt opsiyonel tamsayı parametresi, yoksa def
func QueryInt(c *fiber.Ctx, name string, def, min, max int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s geçersiz (%d-%d)", name, min, max))
	}
	return v, nil
}

// ParseDate "YYYY-MM-DD" değerini yerel saat diliminde gün başı olarak çözer
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// DayStart t'nin yerel gün başı
func DayStart(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// Range [From, To) zaman aralığı. To hariçtir.
type Range struct {
	From time.Time
	To   time.Time
}

// Days aralıktaki gün sayısı (en az 1)
func (r Range) Days() int {
	d := int(r.To.Sub(r.From).Hours()/24 + 0.5)
	if d < 1 {
		return 1
	}
	return d
}

// LastDay aralığın son (dahil) günü
func (r Range) LastDay() time.Time {
	return r.To.AddDate(0, 0, -1)
}

// DateRange from/to query parametrelerini çözer. to dahildir; dönen
// aralıkta bir sonraki günün başına çekilir. Varsayılan son 30 gün.
func DateRange(c *fiber.Ctx) (Range, error) {
	today := DayStart(time.Now())
	r := Range{
		From: today.AddDate(0, 0, -(defaultDays - 1)),
		To:   today.AddDate(0, 0, 1),
	}

	if s := c.Query("from"); s != "" {
		from, err := ParseDate(s)
		if err != nil {
			return r, fiber.NewError(fiber.StatusBadRequest, "from geçersiz, 'YYYY-MM-DD' olmalı")
		}
		r.From = from
	}
	if s := c.Query("to"); s != "" {
		to, err := ParseDate(s)
		if err != nil {
			return r, fiber.NewError(fiber.StatusBadRequest, "to geçersiz, 'YYYY-MM-DD' olmalı")
		}
		r.To = to.AddDate(0, 0, 1)
	}
	if !r.From.Before(r.To) {
		return r, fiber.NewError(fiber.StatusBadRequest, "from, to'dan sonra olamaz")
	}
	return r, nil
}

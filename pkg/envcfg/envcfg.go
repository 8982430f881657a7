// Package envcfg читает конфигурацию сервисов из переменных окружения.
// Пустая переменная означает значение по умолчанию, непарсящаяся - ошибку Err.
package envcfg

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func New() *Reader {
	return &Reader{lookup: os.LookupEnv}
}

// FromMap читает из map, а не из окружения процесса
func FromMap(env map[string]string) *Reader {
	return &Reader{lookup: func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}}
}

func (r *Reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *Reader) String(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *Reader) Int(key string, def int) int {
	return parse(r, key, def, strconv.Atoi)
}

func (r *Reader) Float(key string, def float64) float64 {
	return parse(r, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// Duration понимает формат time.ParseDuration ("30s", "1h")
func (r *Reader) Duration(key string, def time.Duration) time.Duration {
	return parse(r, key, def, time.ParseDuration)
}

// List разбирает список через запятую ("kafka1:9092,kafka2:9092"), пустые элементы отбрасываются
func (r *Reader) List(key, def string) []string {
	var out []string
	for _, p := range strings.Split(r.String(key, def), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// OneOf - значение без учета регистра из allowed
func (r *Reader) OneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(r.String(key, def))
	if !slices.Contains(allowed, v) {
		r.Failf("%s: %q is not one of %s", key, v, strings.Join(allowed, ", "))
	}
	return v
}

// Failf добавляет ошибку проверки, найденную вызывающим кодом
func (r *Reader) Failf(format string, args ...any) {
	r.errs = append(r.errs, fmt.Errorf(format, args...))
}

func (r *Reader) Err() error {
	return errors.Join(r.errs...)
}

func parse[T any](r *Reader, key string, def T, fn func(string) (T, error)) T {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	parsed, err := fn(v)
	if err != nil {
		r.Failf("%s: invalid value %q", key, v)
		return def
	}
	return parsed
}

// Package version хранит build-информацию бинарников сервиса заказов.
// Значения подставляются при сборке:
//
//	go build -ldflags "-X .../internal/version.version=v1.2.3"
package version

import "fmt"

// Service — каноническое имя сервиса; используется в health-ответах.
const Service = "beer-order-service"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

// String форматирует build-информацию одной строкой для логов.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}

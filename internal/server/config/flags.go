package config

import (
	"flag"
	"strings"

	"github.com/dmitrijs2005/enraizado/internal/flagx"
)

var valueFlags = []string{
	"-a", "-d", "-e", "-u", "-s", "-t", "-k", "-l",
	"-smtp-host", "-smtp-port", "-smtp-user", "-smtp-password", "-smtp-from",
}

// ValueFlags lists every configuration flag that consumes a following value,
// including -c/-config. The admin CLI uses it to separate its command words
// from configuration flags.
func ValueFlags() []string {
	return append(append([]string{}, valueFlags...), "-c", "-config")
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string           HTTP bind address (e.g., ":8080")
//	-d string           PostgreSQL DSN
//	-e string           environment (development|production)
//	-u string           public base URL
//	-s duration         session lifetime (e.g., "720h")
//	-t duration         activation token lifetime
//	-k int              bcrypt cost
//	-l string           log level
//	-smtp-host string, -smtp-port int, -smtp-user string,
//	-smtp-password string, -smtp-from string
//	-migrate[=bool]     apply migrations on start
//
// Unknown arguments are filtered out first so other parsers can share the
// same argument list.
func parseFlags(config *Config, args []string) {
	filtered := flagx.FilterArgs(args, valueFlags)
	for _, a := range args {
		if a == "-migrate" || strings.HasPrefix(a, "-migrate=") {
			filtered = append(filtered, a)
		}
	}

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment")
	fs.StringVar(&config.BaseURL, "u", config.BaseURL, "public base URL")
	fs.DurationVar(&config.SessionLifetime, "s", config.SessionLifetime, "session lifetime")
	fs.DurationVar(&config.ActivationLifetime, "t", config.ActivationLifetime, "activation token lifetime")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.SMTPHost, "smtp-host", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "smtp-port", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUser, "smtp-user", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "smtp-password", config.SMTPPassword, "SMTP password")
	fs.StringVar(&config.SMTPFrom, "smtp-from", config.SMTPFrom, "sender address")

	fs.BoolVar(&config.MigrateOnStart, "migrate", config.MigrateOnStart, "apply migrations on start")

	if err := fs.Parse(filtered); err != nil {
		panic(err)
	}
}

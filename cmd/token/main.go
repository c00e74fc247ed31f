// Command token prints a bearer token signed with the configured key, for
// calling the API locally without an identity provider.
package main

import (
	"flag"
	"fmt"
	"time"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/vietanh2810/attendance-api/cmd/app"
)

func main() {
	subject := flag.String("sub", "", "principal id")
	name := flag.String("name", "", "display name")
	roles := flag.String("roles", "", "comma separated roles, e.g. organizer,admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	token, err := app.IssueToken(*subject, *name, *roles, *ttl)
	if err != nil {
		panic(err)
	}

	fmt.Println(token)
}

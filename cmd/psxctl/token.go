package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	jwtmw "psx_backend/internal/platform/jwt"
)

type tokenCmd struct {
	subject string
	ttl     time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "mint an operator token for the email endpoint" }
func (*tokenCmd) Usage() string {
	return `psxctl token [-sub <name>] [-ttl <duration>]

  Prints a bearer token signed with auth.jwt_secret (JWT_SECRET).
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.subject, "sub", "operator", "Token subject.")
	f.DurationVar(&c.ttl, "ttl", 0, "Token lifetime. Defaults to auth.token_ttl.")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fail("Error loading config: %v", err)
		return subcommands.ExitFailure
	}
	ttl := c.ttl
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, err := jwtmw.NewGenerator(cfg.Auth.JWTSecret, ttl).GenerateToken(c.subject)
	if err != nil {
		fail("Error minting token: %v", err)
		return subcommands.ExitFailure
	}
	fmt.Println(token)
	return subcommands.ExitSuccess
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"drip/internal/attestation/jwtgateway"
	"drip/internal/client"
	"drip/pkg/domain"
)

// Version is set via ldflags.
var Version = "dev"

func App() *cli.App {
	return &cli.App{
		Name:    "dripctl",
		Usage:   "drip faucet command-line client",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "drip server address",
				EnvVars: []string{"DRIP_SERVER"},
				Value:   "localhost:8080",
			},
			&cli.StringFlag{
				Name:    "key",
				Aliases: []string{"k"},
				Usage:   "path to the signing key file",
				EnvVars: []string{"DRIP_KEY"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "keygen",
				Usage: "Create a signing key file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "key file to create", Required: true},
				},
				Action: keygen,
			},
			{
				Name:  "register",
				Usage: "Register the key's identity",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "proof", Aliases: []string{"p"}, Usage: "gateway token (omit when exempt)"},
				},
				Action: register,
			},
			{
				Name:  "claim",
				Usage: "Claim the accrued amount",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "proof", Aliases: []string{"p"}, Usage: "gateway token (omit when exempt)"},
					&cli.StringFlag{Name: "mint", Usage: "expected token mint"},
				},
				Action: claim,
			},
			{
				Name:      "set-exempt",
				Usage:     "Hand the exempt role to IDENTITY, or clear it",
				ArgsUsage: "[IDENTITY]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clear", Usage: "clear the exempt role"},
				},
				Action: setExempt,
			},
			{
				Name:      "status",
				Usage:     "Show registration and cooldown of IDENTITY (default: the key's)",
				ArgsUsage: "[IDENTITY]",
				Action:    status,
			},
			{
				Name:      "balance",
				Usage:     "Show the token balance of IDENTITY (default: the key's)",
				ArgsUsage: "[IDENTITY]",
				Action:    balance,
			},
			{
				Name:   "config",
				Usage:  "Show the faucet configuration",
				Action: showConfig,
			},
			{
				Name:  "issue-gateway-token",
				Usage: "Sign a development gateway token with a network key",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "network-key", Usage: "network signing key file", Required: true},
					&cli.StringFlag{Name: "subject", Usage: "identity the token is issued to", Required: true},
					&cli.DurationFlag{Name: "ttl", Usage: "token lifetime", Value: 24 * time.Hour},
				},
				Action: issueGatewayToken,
			},
		},
	}
}

func newClient(c *cli.Context, needKey bool) (*client.Client, error) {
	var opts []client.Option
	if path := c.String("key"); path != "" {
		key, err := client.LoadKey(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithKey(key))
	} else if needKey {
		return nil, errors.New("--key is required")
	}
	return client.New(c.String("server"), opts...), nil
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// targetIdentity is the first argument, or the key's identity.
func targetIdentity(c *cli.Context, cl *client.Client) (domain.Address, error) {
	if arg := c.Args().First(); arg != "" {
		return domain.ParseAddress(arg)
	}
	return cl.Identity()
}

func keygen(c *cli.Context) error {
	key, err := client.GenerateKey()
	if err != nil {
		return err
	}
	if err := client.SaveKey(c.String("out"), key); err != nil {
		return err
	}
	cl := client.New("", client.WithKey(key))
	identity, err := cl.Identity()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, identity.String())
	return err
}

func register(c *cli.Context) error {
	cl, err := newClient(c, true)
	if err != nil {
		return err
	}
	user, err := cl.Register(c.Context, c.String("proof"))
	if err != nil {
		return err
	}
	return printJSON(c, user)
}

func claim(c *cli.Context) error {
	cl, err := newClient(c, true)
	if err != nil {
		return err
	}
	res, err := cl.Claim(c.Context, c.String("proof"), c.String("mint"))
	if err != nil {
		return err
	}
	return printJSON(c, res)
}

func setExempt(c *cli.Context) error {
	next := c.Args().First()
	if next == "" && !c.Bool("clear") {
		return errors.New("pass IDENTITY or --clear")
	}
	if next != "" && c.Bool("clear") {
		return errors.New("IDENTITY and --clear are exclusive")
	}
	cl, err := newClient(c, true)
	if err != nil {
		return err
	}
	cfg, err := cl.SetExempt(c.Context, next)
	if err != nil {
		return err
	}
	return printJSON(c, cfg)
}

func status(c *cli.Context) error {
	cl, err := newClient(c, false)
	if err != nil {
		return err
	}
	identity, err := targetIdentity(c, cl)
	if err != nil {
		return err
	}
	user, err := cl.User(c.Context, identity)
	if err != nil {
		return err
	}
	return printJSON(c, user)
}

func balance(c *cli.Context) error {
	cl, err := newClient(c, false)
	if err != nil {
		return err
	}
	identity, err := targetIdentity(c, cl)
	if err != nil {
		return err
	}
	bal, err := cl.Balance(c.Context, identity)
	if err != nil {
		return err
	}
	return printJSON(c, bal)
}

func showConfig(c *cli.Context) error {
	cl, err := newClient(c, false)
	if err != nil {
		return err
	}
	cfg, err := cl.Config(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, cfg)
}

func issueGatewayToken(c *cli.Context) error {
	networkKey, err := client.LoadKey(c.String("network-key"))
	if err != nil {
		return err
	}
	subject, err := domain.ParseAddress(c.String("subject"))
	if err != nil {
		return fmt.Errorf("--subject: %w", err)
	}
	token, err := jwtgateway.Issue(networkKey, subject, time.Now(), c.Duration("ttl"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, token)
	return err
}

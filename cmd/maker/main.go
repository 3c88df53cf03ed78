package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

var daemonFlag = &cli.StringFlag{
	Name:  "daemon",
	Usage: "base URL of the maker daemon operator interface",
	Value: "http://localhost:5005",
}

func main() {
	app := &cli.App{
		Name:  "maker",
		Usage: "operator CLI for the maker daemon",
		Flags: []cli.Flag{daemonFlag},
		Commands: []*cli.Command{
			getOrderCmd, getQuoteCmd, getMaxQuoteCmd,
			signOrderCmd, fillOrderCmd,
			wrapCmd, unwrapCmd, approveCmd,
			intentsCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func post(ctx *cli.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(
		ctx.String("daemon")+path, "application/json", bytes.NewReader(payload),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s: %s", resp.Status, string(out))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, out, "", "  "); err != nil {
		fmt.Println(string(out))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func tradeQueryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "peer", Usage: "peer address to query", Required: true},
		&cli.StringFlag{Name: "maker-token", Usage: "maker-side token address", Required: true},
		&cli.StringFlag{Name: "taker-token", Usage: "taker-side token address", Required: true},
		&cli.StringFlag{Name: "maker-amount", Usage: "known maker-side amount, atomic units"},
		&cli.StringFlag{Name: "taker-amount", Usage: "known taker-side amount, atomic units"},
	}
}

func tradeQueryBody(ctx *cli.Context) map[string]string {
	body := map[string]string{
		"peer":        ctx.String("peer"),
		"signerToken": ctx.String("maker-token"),
		"senderToken": ctx.String("taker-token"),
	}
	if amount := ctx.String("maker-amount"); amount != "" {
		body["signerParam"] = amount
	}
	if amount := ctx.String("taker-amount"); amount != "" {
		body["senderParam"] = amount
	}
	return body
}

var getOrderCmd = &cli.Command{
	Name:  "getorder",
	Usage: "request a signed order from a peer",
	Flags: tradeQueryFlags(),
	Action: func(ctx *cli.Context) error {
		return post(ctx, "/getOrder", tradeQueryBody(ctx))
	},
}

var getQuoteCmd = &cli.Command{
	Name:  "getquote",
	Usage: "request an indicative quote from a peer",
	Flags: tradeQueryFlags(),
	Action: func(ctx *cli.Context) error {
		return post(ctx, "/getQuote", tradeQueryBody(ctx))
	},
}

var getMaxQuoteCmd = &cli.Command{
	Name:  "getmaxquote",
	Usage: "request the largest quote a peer can currently serve",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "peer", Required: true},
		&cli.StringFlag{Name: "maker-token", Required: true},
		&cli.StringFlag{Name: "taker-token", Required: true},
	},
	Action: func(ctx *cli.Context) error {
		return post(ctx, "/getMaxQuote", map[string]string{
			"peer":        ctx.String("peer"),
			"signerToken": ctx.String("maker-token"),
			"senderToken": ctx.String("taker-token"),
		})
	},
}

func orderFromFile(path string) (map[string]interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var order map[string]interface{}
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("invalid order file %s: %w", path, err)
	}
	return order, nil
}

var signOrderCmd = &cli.Command{
	Name:  "sign",
	Usage: "sign an order read from a JSON file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "order", Usage: "path to the order JSON", Required: true},
	},
	Action: func(ctx *cli.Context) error {
		order, err := orderFromFile(ctx.String("order"))
		if err != nil {
			return err
		}
		return post(ctx, "/signOrder", order)
	},
}

var fillOrderCmd = &cli.Command{
	Name:  "fill",
	Usage: "settle a signed order on-chain, read from a JSON file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "order", Usage: "path to the signed order JSON", Required: true},
	},
	Action: func(ctx *cli.Context) error {
		order, err := orderFromFile(ctx.String("order"))
		if err != nil {
			return err
		}
		return post(ctx, "/fillOrder", order)
	},
}

var wrapCmd = &cli.Command{
	Name:  "wrap",
	Usage: "wrap native currency into WETH",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "amount", Usage: "amount in wei", Required: true},
	},
	Action: func(ctx *cli.Context) error {
		return post(ctx, "/wrapWeth", map[string]string{
			"amount": ctx.String("amount"),
		})
	},
}

var unwrapCmd = &cli.Command{
	Name:  "unwrap",
	Usage: "unwrap WETH back into native currency",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "amount", Usage: "amount in wei", Required: true},
	},
	Action: func(ctx *cli.Context) error {
		return post(ctx, "/unwrapWeth", map[string]string{
			"amount": ctx.String("amount"),
		})
	},
}

var approveCmd = &cli.Command{
	Name:  "approve",
	Usage: "grant the swap contract spending allowance for a token",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "token", Usage: "token contract address", Required: true},
	},
	Action: func(ctx *cli.Context) error {
		return post(ctx, "/approveTokenForTrade", map[string]string{
			"tokenContractAddr": ctx.String("token"),
		})
	},
}

var intentsCmd = &cli.Command{
	Name:  "intents",
	Usage: "query trading intents on the indexer",
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Usage: "list the intents announced by a peer",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "address", Usage: "peer address", Required: true},
			},
			Action: func(ctx *cli.Context) error {
				return post(ctx, "/getIntents", map[string]string{
					"address": ctx.String("address"),
				})
			},
		},
		{
			Name:  "find",
			Usage: "find peers trading the given tokens",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "maker-token", Usage: "maker-side token address"},
				&cli.StringSliceFlag{Name: "taker-token", Usage: "taker-side token address"},
				&cli.StringFlag{Name: "role", Value: "maker"},
			},
			Action: func(ctx *cli.Context) error {
				return post(ctx, "/findIntents", map[string]interface{}{
					"makerTokens": ctx.StringSlice("maker-token"),
					"takerTokens": ctx.StringSlice("taker-token"),
					"role":        ctx.String("role"),
				})
			},
		},
	},
}

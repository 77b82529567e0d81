package command

import (
	"strings"

	"github.com/forgehouse/auctiond/pkg/helpers"
)

// Parse turns one line of input into a Command. The verb is matched
// case-insensitively; surrounding and interior whitespace is tolerant
// (spec.md §4.5). Anything that does not match a recognized verb, or a
// recognized two-word verb (DEPOSIT/WITHDRAW/SHOW) with no recognized
// second word, becomes Unknown.
func Parse(line string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Unknown{Raw: line}
	}

	verb := strings.ToUpper(fields[0])
	args := fields[1:]

	switch verb {
	case "HELP":
		return Help{}
	case "LOGIN":
		username := firstOr(args, "")
		return Login{Username: username, ArgsOK: helpers.IsWordToken(username)}
	case "LOGOUT":
		return Logout{}
	case "DEPOSIT":
		return parseDeposit(args, line)
	case "WITHDRAW":
		return parseWithdraw(args, line)
	case "SELL":
		return parseSell(args)
	case "BID":
		return parseBid(args)
	case "SHOW":
		return parseShow(args, line)
	}
	return Unknown{Raw: line}
}

func firstOr(args []string, def string) string {
	if len(args) == 0 {
		return def
	}
	return args[0]
}

func parseDeposit(args []string, raw string) Command {
	if len(args) < 2 {
		return Unknown{Raw: raw}
	}
	switch strings.ToUpper(args[0]) {
	case "FUNDS":
		n, ok := helpers.ParseUint64(args[1])
		return DepositFunds{Amount: n, ArgsOK: ok}
	case "ITEM":
		return DepositItem{Item: args[1]}
	}
	return Unknown{Raw: raw}
}

func parseWithdraw(args []string, raw string) Command {
	if len(args) < 2 {
		return Unknown{Raw: raw}
	}
	switch strings.ToUpper(args[0]) {
	case "FUNDS":
		n, ok := helpers.ParseUint64(args[1])
		return WithdrawFunds{Amount: n, ArgsOK: ok}
	case "ITEM":
		return WithdrawItem{Item: args[1]}
	}
	return Unknown{Raw: raw}
}

const defaultDurationSeconds = 300

func parseSell(args []string) Command {
	if len(args) < 2 {
		return Sell{ArgsOK: false}
	}
	price, priceOK := helpers.ParseUint64(args[1])
	cmd := Sell{Item: args[0], Price: price, DurationSec: defaultDurationSeconds, ArgsOK: priceOK}
	if len(args) >= 3 {
		secs, secsOK := helpers.ParseUint64(args[2])
		cmd.DurationSec = secs
		cmd.HasDuration = true
		cmd.ArgsOK = cmd.ArgsOK && secsOK
	}
	return cmd
}

func parseBid(args []string) Command {
	if len(args) < 2 {
		return Bid{ArgsOK: false}
	}
	id, idOK := helpers.ParseUint64(args[0])
	price, priceOK := helpers.ParseUint64(args[1])
	return Bid{AuctionID: id, Price: price, ArgsOK: idOK && priceOK}
}

func parseShow(args []string, raw string) Command {
	if len(args) < 1 {
		return Unknown{Raw: raw}
	}
	switch strings.ToUpper(args[0]) {
	case "FUNDS":
		return ShowFunds{}
	case "ITEMS":
		return ShowItems{}
	case "SALES":
		return ShowSales{}
	}
	return Unknown{Raw: raw}
}

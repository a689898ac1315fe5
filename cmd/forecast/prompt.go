package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"AssetForecast/internal/engine"
	"AssetForecast/internal/holdings"
)

type prompter interface {
	Tickers() (string, error)
	Amount(ticker, current string) (string, error)
}

type huhPrompter struct{}

func (huhPrompter) Tickers() (string, error) {
	var raw string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Enter ticker(s) separated by commas").
			Placeholder("GC=F, ^GSPC, SI=F").
			Value(&raw),
	)).Run()
	return raw, err
}

func (huhPrompter) Amount(ticker, current string) (string, error) {
	v := current
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(fmt.Sprintf("Enter asset amount (in units) for %s", ticker)).
			Value(&v),
	)).Run()
	return v, err
}

// splitAmounts keeps positions so amounts line up with tickers.
func splitAmounts(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// collectRequests reads tickers and amounts from flags, or prompts for them
// when no tickers were given. Saved holdings prefill the amount prompts.
func collectRequests(out io.Writer, p prompter, tickersFlag, amountsFlag string, hm *holdings.Manager) ([]engine.Request, error) {
	var lookup func(string) (float64, bool)
	if hm != nil {
		lookup = hm.Amount
	}

	var tickers, amounts []string
	if tickersFlag != "" {
		tickers = engine.ParseTickers(tickersFlag)
		amounts = splitAmounts(amountsFlag)
	} else {
		raw, err := p.Tickers()
		if err != nil {
			return nil, fmt.Errorf("read tickers: %w", err)
		}
		tickers = engine.ParseTickers(raw)
		for _, t := range tickers {
			current := ""
			if lookup != nil {
				if v, ok := lookup(t); ok {
					current = strconv.FormatFloat(v, 'f', -1, 64)
				}
			}
			a, err := p.Amount(t, current)
			if err != nil {
				return nil, fmt.Errorf("read amount for %s: %w", t, err)
			}
			amounts = append(amounts, a)
		}
	}

	reqs, invalid := engine.BuildRequests(tickers, amounts, lookup)
	for _, t := range invalid {
		fmt.Fprintf(out, "Invalid input for %s. Using asset amount = 1.\n", t)
	}
	return reqs, nil
}

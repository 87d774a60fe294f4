package rediskeys

import (
	"context"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

// DefaultInspectExclude skips the keys written by Django's cache framework
const DefaultInspectExclude = `^:1.*`

// InspectAll prints the type and measured value of every key on the server,
// except those matching exclude.
func InspectAll(ctx context.Context, s Scanner, exclude *regexp.Regexp, w io.Writer) error {
	keys, err := s.Keys(ctx, "*")
	if err != nil {
		return errors.Wrap(err, "could not list keys")
	}
	sort.Strings(keys)

	var selected []string
	for _, k := range keys {
		if exclude != nil && exclude.MatchString(k) {
			continue
		}
		selected = append(selected, k)
	}
	return inspect(ctx, s, selected, w)
}

// InspectNames prints the type and measured value of a comma separated list
// of keys.
func InspectNames(ctx context.Context, c Client, namesCSV string, w io.Writer) error {
	var keys []string
	for _, k := range strings.Split(namesCSV, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return inspect(ctx, c, keys, w)
}

func inspect(ctx context.Context, c Client, keys []string, w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Type", "Value"})
	table.SetAutoWrapText(false)

	for _, k := range keys {
		res, err := Resolve(ctx, c, k)
		if err != nil {
			table.Append([]string{k, "error", err.Error()})
			continue
		}
		table.Append([]string{k, res.Type.String(), res.Value()})
	}
	table.Render()
	return nil
}

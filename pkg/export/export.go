// Package export renders forecast results for the CLI.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/kilianp07/parity/core/forecast"
)

// WriteJSON writes the forecast results to w in JSON format.
func WriteJSON(w io.Writer, results []forecast.Result) error {
	sortByRegion(results)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// WriteTipping writes one line per region: the parity year, or the note when
// no parity was found.
func WriteTipping(w io.Writer, results []forecast.Result) error {
	sortByRegion(results)
	for _, res := range results {
		var err error
		if res.TippingPointYear != nil {
			_, err = fmt.Fprintf(w, "%s\t%d\n", res.Region, *res.TippingPointYear)
		} else {
			_, err = fmt.Fprintf(w, "%s\t%s\n", res.Region, res.Note)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func sortByRegion(results []forecast.Result) {
	sort.Slice(results, func(i, j int) bool { return results[i].Region < results[j].Region })
}

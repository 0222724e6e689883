package store

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/go-faster/errors"
)

var csvHeader = []string{"id", "category", "elapsed_ms", "pre_plus_two", "pre_dnf", "post_plus_two", "post_dnf", "wall_timestamp_ms", "scramble"}

// ExportCSV writes every record for category to w, for external analysis
// or backup outside the bbolt file.
func (s *Store) ExportCSV(w io.Writer, category string) error {
	records, err := s.Records(category)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, r := range records {
		row := []string{
			strconv.FormatUint(r.ID, 10),
			r.Category,
			strconv.FormatInt(r.ElapsedMs, 10),
			strconv.Itoa(r.PrePlusTwo),
			strconv.FormatBool(r.PreDNF),
			strconv.Itoa(r.PostPlusTwo),
			strconv.FormatBool(r.PostDNF),
			strconv.FormatInt(r.WallTimestamp, 10),
			r.Scramble,
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportCSV reads records previously written by ExportCSV (or hand-authored
// in the same shape) and persists each one, assigning fresh IDs.
func (s *Store) ImportCSV(r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return 0, errors.Wrap(err, "read csv")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n := 0
	for _, row := range rows[1:] { // skip header
		if len(row) != len(csvHeader) {
			return n, errors.Newf("malformed csv row: %v", row)
		}
		elapsed, _ := strconv.ParseInt(row[2], 10, 64)
		prePlusTwo, _ := strconv.Atoi(row[3])
		preDNF, _ := strconv.ParseBool(row[4])
		postPlusTwo, _ := strconv.Atoi(row[5])
		postDNF, _ := strconv.ParseBool(row[6])
		wallMs, _ := strconv.ParseInt(row[7], 10, 64)
		rec := Record{
			Category:      row[1],
			ElapsedMs:     elapsed,
			PrePlusTwo:    prePlusTwo,
			PreDNF:        preDNF,
			PostPlusTwo:   postPlusTwo,
			PostDNF:       postDNF,
			WallTimestamp: wallMs,
			Scramble:      row[8],
		}
		if err := s.save(rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

package mapper

import (
	"fmt"

	"github.com/straye-as/gallery/internal/domain"
	"github.com/straye-as/gallery/internal/storage"
)

// ToDisplayRecord converts an ImageRow to a DisplayRecord whose URL points at
// the blob inside the container at baseURL, signed with token.
func ToDisplayRecord(row domain.ImageRow, baseURL, token string) (domain.DisplayRecord, error) {
	if row.Name == "" {
		return domain.DisplayRecord{}, domain.ErrEmptyBlobName
	}

	labels, err := NormalizeLabels(row.Labels)
	if err != nil {
		return domain.DisplayRecord{}, fmt.Errorf("image %s: %w", row.Name, err)
	}

	return domain.DisplayRecord{
		URL:          storage.BuildBlobURL(baseURL, row.Name, token),
		Name:         row.Name,
		Labels:       labels,
		SafeAdult:    row.SafeAdult,
		SafeRacy:     row.SafeRacy,
		SafeViolence: row.SafeViolence,
	}, nil
}

// ToDisplayRecords converts rows in order. The first failing row aborts the
// conversion and its index is reported.
func ToDisplayRecords(rows []domain.ImageRow, baseURL, token string) ([]domain.DisplayRecord, error) {
	records := make([]domain.DisplayRecord, 0, len(rows))
	for i, row := range rows {
		record, err := ToDisplayRecord(row, baseURL, token)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

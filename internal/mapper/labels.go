package mapper

import (
	"strings"

	"github.com/straye-as/gallery/internal/domain"
)

// LabelSeparator joins labels into their display form.
const LabelSeparator = ", "

// NormalizeLabels turns either representation of a label list into a single
// comma-joined string, preserving order. A serialized source must decode as a
// JSON array of strings; anything else fails with *domain.MalformedLabelDataError.
func NormalizeLabels(src domain.LabelSource) (string, error) {
	switch src.Kind() {
	case domain.LabelsAlreadyList:
		return strings.Join(src.List(), LabelSeparator), nil
	case domain.LabelsSerialized:
		labels, err := domain.DecodeLabelList([]byte(src.Raw()))
		if err != nil {
			return "", err
		}
		return strings.Join(labels, LabelSeparator), nil
	default:
		return "", &domain.MalformedLabelDataError{Err: domain.ErrLabelsMissing}
	}
}

package analytics

import (
	"github.com/pitchside/cricket-insights/internal/dataset"
	"github.com/pitchside/cricket-insights/internal/models"
)

// Apply narrows the dataset to the records satisfying spec. Fields of the
// spec compose with logical AND; an empty result is a valid outcome, not
// an error. Record order follows dataset order, so identical inputs
// always yield identical views.
func Apply(ds *dataset.Dataset, spec models.FilterSpec) models.FilteredView {
	if spec.IsZero() {
		view := make(models.FilteredView, len(ds.Records))
		copy(view, ds.Records)
		return view
	}

	view := models.FilteredView{}
	for _, rec := range ds.Records {
		if spec.Matches(rec) {
			view = append(view, rec)
		}
	}
	return view
}

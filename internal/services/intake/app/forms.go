package app

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/MichaelAguilera/intake/internal/services/intake/fieldpath"
	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
	apperrors "github.com/MichaelAguilera/intake/internal/services/intake/platform/errors"
)

// Form keys that are not field paths.
const (
	formAppend = "_append"
	formDelete = "_delete"
	listSuffix = "[]"
)

// parseFieldEdits turns a posted card form into edits. Every key is a dotted
// field path holding one value; a key ending in "[]" holds a list whose blank
// entries are dropped. _append names a list that gains an empty item and
// _delete names an item to remove. Sets come first in key order, then
// appends, then deletes.
func parseFieldEdits(form url.Values) ([]screening.FieldEdit, error) {
	keys := make([]string, 0, len(form))
	for key := range form {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sets, appends, deletes []screening.FieldEdit
	for _, key := range keys {
		values := form[key]
		switch key {
		case formAppend:
			for _, raw := range values {
				path, err := parseFormPath(raw)
				if err != nil {
					return nil, err
				}
				appends = append(appends, screening.FieldEdit{Op: screening.EditAppend, Path: path, Value: map[string]any{}})
			}
			continue
		case formDelete:
			for _, raw := range values {
				path, err := parseFormPath(raw)
				if err != nil {
					return nil, err
				}
				deletes = append(deletes, screening.FieldEdit{Op: screening.EditDelete, Path: path})
			}
			continue
		}

		if name, ok := strings.CutSuffix(key, listSuffix); ok {
			path, err := parseFormPath(name)
			if err != nil {
				return nil, err
			}
			list := make([]any, 0, len(values))
			for _, value := range values {
				if strings.TrimSpace(value) != "" {
					list = append(list, value)
				}
			}
			sets = append(sets, screening.FieldEdit{Op: screening.EditSet, Path: path, Value: list})
			continue
		}

		path, err := parseFormPath(key)
		if err != nil {
			return nil, err
		}
		if len(values) != 1 {
			return nil, apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("field %s posted %d values", key, len(values)))
		}
		sets = append(sets, screening.FieldEdit{Op: screening.EditSet, Path: path, Value: values[0]})
	}

	edits := append(sets, appends...)
	return append(edits, deletes...), nil
}

func parseFormPath(raw string) (fieldpath.Path, error) {
	raw = strings.TrimSpace(raw)
	path, err := fieldpath.Parse(raw)
	if err != nil || len(path) == 0 {
		return nil, apperrors.EK(apperrors.KindInvalidInput, "form.field.invalid", fmt.Sprintf("invalid field %q", raw))
	}
	return path, nil
}

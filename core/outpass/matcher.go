package outpass

import (
	"context"
	"regexp"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/campusgate/outpass/core"
)

// scanTokenRegex extracts the roll number from OP-<ROLLNO> and OP-<ROLLNO>-<timestamp> tokens.
var scanTokenRegex = regexp.MustCompile(`^OP-([A-Za-z0-9]+)(?:-\d+)?$`)

// FindByToken resolves a barcode scan or a typed roll number to a single outpass.
// The first step of the chain that yields candidates wins:
//   1. exact barcode token
//   2. roll number parsed from the token (or the token itself), against roll number or id
//   3. case-insensitive substring of roll number or id
// Candidates a gate can act on (Approved, Exited, Late) beat the rest, then the newest wins.
func (svc *Service) FindByToken(ctx context.Context, token string) (Outpass, error) {
	token = core.CleanString(token)
	if token == "" {
		return Outpass{}, core.NewValidationError(nil, core.FieldError{Field: "token", Error: "this field is required"})
	}

	all, err := svc.repo.Query(ctx, QueryFilter{})
	if err != nil {
		return Outpass{}, pkgerrors.Wrap(err, "loading outpasses")
	}

	for _, match := range []func(Outpass) bool{
		exactToken(token),
		rollNoFromToken(token),
		partial(token),
	} {
		var candidates []Outpass
		for _, op := range all {
			if match(op) {
				candidates = append(candidates, op)
			}
		}
		if len(candidates) > 0 {
			return pickActionable(candidates), nil
		}
	}
	return Outpass{}, core.NewNotFoundError("outpass", token)
}

func exactToken(token string) func(Outpass) bool {
	return func(op Outpass) bool {
		return op.BarcodeToken != "" && op.BarcodeToken == token
	}
}

func rollNoFromToken(token string) func(Outpass) bool {
	rollNo := token
	if m := scanTokenRegex.FindStringSubmatch(token); m != nil {
		rollNo = m[1]
	}
	id := IDForRollNo(rollNo)
	return func(op Outpass) bool {
		return strings.EqualFold(op.Student.RollNo, rollNo) || strings.EqualFold(op.ID, id)
	}
}

func partial(token string) func(Outpass) bool {
	needle := strings.ToLower(token)
	return func(op Outpass) bool {
		return strings.Contains(strings.ToLower(op.Student.RollNo), needle) ||
			strings.Contains(strings.ToLower(op.ID), needle)
	}
}

func pickActionable(candidates []Outpass) Outpass {
	sort.SliceStable(candidates, func(i, j int) bool {
		ai, aj := gateActionable(candidates[i].Status), gateActionable(candidates[j].Status)
		if ai != aj {
			return ai
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	return candidates[0]
}

func gateActionable(s Status) bool {
	return s == StatusApproved || s == StatusExited || s == StatusLate
}

package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/parkiq/internal/app"
	"github.com/neomorfeo/parkiq/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// TokenResponse is the API representation of a parking token.
type TokenResponse struct {
	ID           string `json:"id" doc:"Unique token identifier"`
	SlotID       string `json:"slot_id" doc:"Allocated slot"`
	Registration string `json:"registration" doc:"Vehicle registration"`
	Status       string `json:"status" doc:"Token lifecycle state"`
	EntryTime    string `json:"entry_time" doc:"Entry timestamp (ISO 8601)"`
	ExitTime     string `json:"exit_time,omitempty" doc:"Exit timestamp (ISO 8601), empty while active"`
}

func toTokenResponse(t domain.Token) TokenResponse {
	resp := TokenResponse{
		ID:           t.ID,
		SlotID:       t.SlotID,
		Registration: t.Registration,
		Status:       string(t.Status),
		EntryTime:    t.EntryTime.Format(timeFormat),
	}
	if !t.ExitTime.IsZero() {
		resp.ExitTime = t.ExitTime.Format(timeFormat)
	}
	return resp
}

// SlotResponse is the API representation of a slot.
type SlotResponse struct {
	SlotID       string `json:"slot_id" doc:"Unique slot identifier"`
	Class        string `json:"class" doc:"Compatible vehicle class"`
	Occupied     bool   `json:"occupied" doc:"Occupancy state"`
	Registration string `json:"registration,omitempty" doc:"Occupying vehicle, if any"`
}

func toSlotResponse(v app.SlotView) SlotResponse {
	return SlotResponse{
		SlotID:       v.SlotID,
		Class:        string(v.Class),
		Occupied:     v.Occupied,
		Registration: v.Registration,
	}
}

// FloorResponse is the API representation of one floor's occupancy.
type FloorResponse struct {
	FloorID   string         `json:"floor_id" doc:"Floor identifier"`
	Available int            `json:"available" doc:"Free slot count"`
	Occupied  int            `json:"occupied" doc:"Occupied slot count"`
	Slots     []SlotResponse `json:"slots" doc:"Slots in entrance-priority order"`
}

// AuditRecordResponse is the API representation of an audit trail entry.
type AuditRecordResponse struct {
	TokenID      string `json:"token_id" doc:"Issued token"`
	SlotID       string `json:"slot_id" doc:"Allocated slot"`
	Registration string `json:"registration" doc:"Vehicle registration"`
	Class        string `json:"class" doc:"Vehicle class"`
	EntryTime    string `json:"entry_time" doc:"Entry timestamp (ISO 8601)"`
}

// --- Park ---

type ParkInput struct {
	Body struct {
		Registration string `json:"registration" minLength:"1" maxLength:"32" doc:"Vehicle registration (e.g. KA01AB1234)"`
		Class        string `json:"class" doc:"Vehicle class" enum:"two_wheeler,four_wheeler,heavy"`
		Owner        string `json:"owner,omitempty" required:"false" maxLength:"128" doc:"Owner name (optional)"`
		Contact      string `json:"contact,omitempty" required:"false" maxLength:"64" doc:"Owner contact (optional)"`
	}
}

type ParkOutput struct {
	Body TokenResponse
}

// --- Exit ---

type ExitInput struct {
	ID string `path:"id" doc:"Token ID"`
}

type ExitOutput struct {
	Body struct {
		Fee   int           `json:"fee" doc:"Total fee for the parking interval"`
		Token TokenResponse `json:"token" doc:"Closed token"`
	}
}

// --- Quote ---

type QuoteInput struct {
	ID   string `path:"id" doc:"Token ID"`
	Body struct {
		EntryTime time.Time `json:"entry_time" doc:"Interval start (ISO 8601)"`
		ExitTime  time.Time `json:"exit_time" doc:"Interval end (ISO 8601)"`
	}
}

type QuoteOutput struct {
	Body struct {
		Fee int `json:"fee" doc:"Fee the interval would cost; no state is changed"`
	}
}

// --- Search ---

type SearchInput struct {
	Registration string `path:"registration" doc:"Vehicle registration"`
}

type SearchOutput struct {
	Body SlotResponse
}

// --- Floors ---

type ListFloorsOutput struct {
	Body []FloorResponse
}

// --- Audit ---

type ListAuditInput struct {
	Limit  int `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListAuditOutput struct {
	Body []AuditRecordResponse
}

// Register adds all parking API routes to the Huma API. The audit store
// may be nil, in which case the audit listing endpoint is not mounted.
func Register(api huma.API, svc *app.ParkingService, audit domain.AuditStore) {
	huma.Register(api, huma.Operation{
		OperationID: "park-vehicle",
		Method:      http.MethodPost,
		Path:        "/api/v1/tokens",
		Summary:     "Park a vehicle and issue a token",
		Tags:        []string{"Parking"},
	}, func(ctx context.Context, input *ParkInput) (*ParkOutput, error) {
		vehicle, err := domain.NewVehicle(input.Body.Registration, domain.VehicleClass(input.Body.Class))
		if err != nil {
			return nil, toHumaError(err)
		}
		vehicle.OwnerName = input.Body.Owner
		vehicle.Contact = input.Body.Contact

		token, err := svc.Park(ctx, vehicle)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ParkOutput{Body: toTokenResponse(token)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "exit-vehicle",
		Method:      http.MethodPost,
		Path:        "/api/v1/tokens/{id}/exit",
		Summary:     "Exit a vehicle and compute the fee",
		Tags:        []string{"Parking"},
	}, func(ctx context.Context, input *ExitInput) (*ExitOutput, error) {
		fee, token, err := svc.Exit(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &ExitOutput{}
		out.Body.Fee = fee
		out.Body.Token = toTokenResponse(token)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "quote-fee",
		Method:      http.MethodPost,
		Path:        "/api/v1/tokens/{id}/quote",
		Summary:     "Preview a fee for an active token without exiting",
		Tags:        []string{"Parking"},
	}, func(ctx context.Context, input *QuoteInput) (*QuoteOutput, error) {
		fee, err := svc.QuoteFee(ctx, input.ID, input.Body.EntryTime, input.Body.ExitTime)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &QuoteOutput{}
		out.Body.Fee = fee
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "search-vehicle",
		Method:      http.MethodGet,
		Path:        "/api/v1/vehicles/{registration}",
		Summary:     "Find the slot a vehicle is parked in",
		Tags:        []string{"Parking"},
	}, func(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
		// The index stores the trimmed, upper-cased form; normalize the
		// lookup the same way so "ka01ab1234" finds "KA01AB1234".
		registration := strings.ToUpper(strings.TrimSpace(input.Registration))

		view, err := svc.Search(ctx, registration)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SearchOutput{Body: toSlotResponse(view)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-floors",
		Method:      http.MethodGet,
		Path:        "/api/v1/floors",
		Summary:     "List floors with per-slot occupancy",
		Tags:        []string{"Parking"},
	}, func(ctx context.Context, _ *struct{}) (*ListFloorsOutput, error) {
		floors := svc.Floors(ctx)

		resp := make([]FloorResponse, 0, len(floors))
		for _, f := range floors {
			fr := FloorResponse{
				FloorID:   f.FloorID,
				Available: f.Available,
				Occupied:  f.Occupied,
				Slots:     make([]SlotResponse, 0, len(f.Slots)),
			}
			for _, s := range f.Slots {
				fr.Slots = append(fr.Slots, toSlotResponse(s))
			}
			resp = append(resp, fr)
		}
		return &ListFloorsOutput{Body: resp}, nil
	})

	if audit == nil {
		return
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-audit-records",
		Method:      http.MethodGet,
		Path:        "/api/v1/audit",
		Summary:     "List audit trail entries, newest first",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
		records, err := audit.List(ctx, input.Limit, input.Offset)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]AuditRecordResponse, 0, len(records))
		for _, r := range records {
			resp = append(resp, AuditRecordResponse{
				TokenID:      r.TokenID,
				SlotID:       r.SlotID,
				Registration: r.Registration,
				Class:        string(r.Class),
				EntryTime:    r.EntryTime.Format(timeFormat),
			})
		}
		return &ListAuditOutput{Body: resp}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrTokenNotFound) {
		return huma.Error404NotFound("token not found")
	}
	if errors.Is(err, domain.ErrVehicleNotFound) {
		return huma.Error404NotFound("vehicle not found")
	}

	var regErr *domain.InvalidRegistrationError
	if errors.As(err, &regErr) {
		return huma.Error422UnprocessableEntity(regErr.Error())
	}

	var parkedErr *domain.AlreadyParkedError
	if errors.As(err, &parkedErr) {
		return huma.Error409Conflict(parkedErr.Error())
	}

	var noSlotErr *domain.NoSlotAvailableError
	if errors.As(err, &noSlotErr) {
		return huma.Error409Conflict(noSlotErr.Error())
	}

	var usedErr *domain.TokenAlreadyUsedError
	if errors.As(err, &usedErr) {
		return huma.Error409Conflict(usedErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var intervalErr *domain.InvalidIntervalError
	if errors.As(err, &intervalErr) {
		return huma.Error422UnprocessableEntity(intervalErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}

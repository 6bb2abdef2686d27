package liquidacion

import (
	"context"
	"strings"

	"github.com/lucasmmg12/liquidaciones-osde/internal/export"
	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

// ComputedSequenceNumber derives the liquidation number of p from the
// configured reference month.
func (s *Service) ComputedSequenceNumber(p model.Period) int {
	ref := model.Period{Month: s.opts.Sequence.Month, Year: s.opts.Sequence.Year}
	return s.opts.Sequence.Number + p.MonthsSince(ref)
}

// SequenceNumber returns the stored override for p, or the computed number.
func (s *Service) SequenceNumber(ctx context.Context, p model.Period) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	n, ok, err := s.store.GetSequenceNumber(ctx, p)
	if err != nil {
		return 0, persistErr("get sequence number", err)
	}
	if ok {
		return n, nil
	}
	return s.ComputedSequenceNumber(p), nil
}

// SetSequenceNumber stores an override for p.
func (s *Service) SetSequenceNumber(ctx context.Context, p model.Period, n int) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if n <= 0 {
		return validationErr("number", "must be positive, got %d", n)
	}
	if err := s.store.SetSequenceNumber(ctx, p, n); err != nil {
		return persistErr("set sequence number", err)
	}
	s.log.Info().Str("period", p.String()).Int("number", n).Msg("sequence number set")
	return nil
}

// StaffReports builds the per-staff documents of a processed batch. Staff
// missing from the directory get a blank license.
func (s *Service) StaffReports(ctx context.Context, res *Result, p model.Period) ([]export.StaffReport, error) {
	seq, err := s.SequenceNumber(ctx, p)
	if err != nil {
		return nil, err
	}
	licenses := make(map[string]string, len(res.Summary))
	for _, row := range res.Summary {
		lic, ok, err := s.store.LookupStaffLicense(ctx, row.Staff)
		if err != nil {
			return nil, persistErr("lookup staff license", err)
		}
		if ok {
			licenses[row.Staff] = lic
		} else {
			s.log.Debug().Str("staff", row.Staff).Msg("staff member not in directory")
		}
	}
	return export.StaffReports(export.Detail(res.Rated), res.Summary, p, licenses, seq), nil
}

// SaveStaff adds or updates a staff directory record.
func (s *Service) SaveStaff(ctx context.Context, m model.StaffMember) error {
	m.Name = strings.TrimSpace(m.Name)
	m.License = strings.TrimSpace(m.License)
	if m.Name == "" {
		return validationErr("name", "is required")
	}
	if err := s.store.UpsertStaff(ctx, m); err != nil {
		return persistErr("upsert staff", err)
	}
	return nil
}

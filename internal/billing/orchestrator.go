// Copyright 2026 The HostFlow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"

	"github.com/hidinck/hostflow/internal/clock"
	"github.com/hidinck/hostflow/internal/lease"
	"github.com/hidinck/hostflow/internal/observability/logger"
	"github.com/hidinck/hostflow/internal/observability/metrics"
	"github.com/hidinck/hostflow/internal/property"
)

// TicketCounter supplies the open maintenance ticket tally for the
// dashboard. Satisfied by the ticket repository.
type TicketCounter interface {
	CountOpenForLandlord(ctx context.Context, landlordID string) (int, error)
}

// Orchestrator drives the rent cycle and assembles the landlord
// dashboard. It owns the ordering: lease statuses advance before rent is
// generated, so a lease that expired this month never receives a fresh
// obligation.
type Orchestrator struct {
	leases     *lease.Service
	billing    *Service
	properties *property.Service
	tickets    TicketCounter
	notifier   Notifier
	clk        clock.Clock
	expiringIn time.Duration
	logger     *slog.Logger

	cycleRuns     metric.Int64Counter
	rentGenerated metric.Int64Counter
	leasesExpired metric.Int64Counter
}

// NewOrchestrator creates the billing orchestrator and registers its
// counters on the meter.
func NewOrchestrator(leases *lease.Service, billing *Service, properties *property.Service, tickets TicketCounter, notifier Notifier, clk clock.Clock, expiringIn time.Duration, meter *metrics.Meter, log *slog.Logger) (*Orchestrator, error) {
	cycleRuns, err := meter.CreateCounter("hostflow.billing.cycle_runs", "Number of rent cycle executions")
	if err != nil {
		return nil, err
	}
	rentGenerated, err := meter.CreateCounter("hostflow.billing.rent_generated", "Number of rent obligations created by the cycle")
	if err != nil {
		return nil, err
	}
	leasesExpired, err := meter.CreateCounter("hostflow.billing.leases_expired", "Number of leases expired by the cycle")
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		leases:        leases,
		billing:       billing,
		properties:    properties,
		tickets:       tickets,
		notifier:      notifier,
		clk:           clk,
		expiringIn:    expiringIn,
		logger:        log,
		cycleRuns:     cycleRuns,
		rentGenerated: rentGenerated,
		leasesExpired: leasesExpired,
	}, nil
}

// CycleResult reports what one rent cycle run changed.
type CycleResult struct {
	LeasesExpired int64
	RentGenerated int
}

// RunCycle advances lease statuses, then generates the month's rent.
// Safe to run any number of times a day.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleResult, error) {
	today := o.clk.Today()
	o.cycleRuns.Add(ctx, 1)

	expired, err := o.leases.AdvanceStatuses(ctx, today)
	if err != nil {
		return CycleResult{}, fmt.Errorf("rent cycle: %w", err)
	}
	o.leasesExpired.Add(ctx, expired)

	generated, err := o.billing.GenerateMonthlyRent(ctx)
	if err != nil {
		return CycleResult{LeasesExpired: expired}, fmt.Errorf("rent cycle: %w", err)
	}
	o.rentGenerated.Add(ctx, int64(generated))

	if expired > 0 || generated > 0 {
		o.logger.InfoContext(ctx, "rent cycle completed",
			logger.Component("billing"),
			slog.Int64("leases_expired", expired),
			slog.Int("rent_generated", generated),
		)
	}

	return CycleResult{LeasesExpired: expired, RentGenerated: generated}, nil
}

// NotifyExpiringLeases warns tenants whose active lease ends exactly one
// warning window from today. Matching a single day keeps the daily
// scheduler from re-sending the same warning.
func (o *Orchestrator) NotifyExpiringLeases(ctx context.Context) (int, error) {
	day := clock.Date(o.clk.Today()).Add(o.expiringIn)

	ending, err := o.leases.EndingOn(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("lease expiry notices: %w", err)
	}

	for _, l := range ending {
		o.notifier.Notify(ctx, l.TenantID,
			"Lease expiring soon",
			fmt.Sprintf("Your lease ends on %s. Please contact your landlord about renewal.",
				l.EndDate.Format("2006-01-02")))
	}

	return len(ending), nil
}

// Dashboard is the landlord's portfolio summary.
type Dashboard struct {
	Properties    int                `json:"properties"`
	Occupancy     property.Occupancy `json:"occupancy"`
	ActiveLeases  int                `json:"active_leases"`
	MonthIncome   decimal.Decimal    `json:"month_income"`
	OverdueCount  int                `json:"overdue_count"`
	PendingCount  int                `json:"pending_count"`
	OpenTickets   int                `json:"open_tickets"`
	ExpiringSoon  []*lease.Lease     `json:"expiring_soon"`
	PastEnd       []*lease.Lease     `json:"past_end"`
	RecentRecords []*Record          `json:"recent_records"`
}

// BuildDashboard assembles the landlord dashboard. Read-only: callers
// wanting fresh statuses run the cycle first.
func (o *Orchestrator) BuildDashboard(ctx context.Context, landlordID string) (*Dashboard, error) {
	today := o.clk.Today()

	props, err := o.properties.ListProperties(ctx, landlordID)
	if err != nil {
		return nil, err
	}

	occupancy, err := o.properties.Occupancy(ctx, landlordID)
	if err != nil {
		return nil, err
	}

	activeLeases, err := o.leases.CountActive(ctx, landlordID)
	if err != nil {
		return nil, err
	}

	income, err := o.billing.MonthIncome(ctx, landlordID)
	if err != nil {
		return nil, err
	}

	records, err := o.billing.ListForLandlord(ctx, landlordID)
	if err != nil {
		return nil, err
	}

	expiring, err := o.leases.ExpiringSoon(ctx, landlordID, today, o.expiringIn)
	if err != nil {
		return nil, err
	}

	pastEnd, err := o.leases.PastEnd(ctx, landlordID, today)
	if err != nil {
		return nil, err
	}

	openTickets, err := o.tickets.CountOpenForLandlord(ctx, landlordID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Properties:   len(props),
		Occupancy:    occupancy,
		ActiveLeases: activeLeases,
		MonthIncome:  income,
		OpenTickets:  openTickets,
		ExpiringSoon: expiring,
		PastEnd:      pastEnd,
	}
	for _, rec := range records {
		switch rec.Status {
		case StatusOverdue:
			d.OverdueCount++
		case StatusPartial:
			// A partially paid payment past its due date is still
			// arrears.
			if clock.Date(rec.DueDate).Before(clock.Date(today)) {
				d.OverdueCount++
			}
		case StatusPending:
			d.PendingCount++
		}
	}
	if len(records) > 10 {
		records = records[:10]
	}
	d.RecentRecords = records

	return d, nil
}

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/luxfi/metric"
	"github.com/luxfi/utils/wrappers"

	"github.com/luxfi/crossvm/vmid"
)

const (
	vmLabel      = "vm"
	outcomeLabel = "outcome"
)

var (
	_ Metrics = (*metricsImpl)(nil)

	callLabels     = []string{vmLabel, outcomeLabel}
	consumedLabels = []string{vmLabel}
)

type Metrics interface {
	// MarkDispatched records one finished dispatch, labelled by the caller
	// VM and the terminal outcome, along with its caller-unit cost.
	MarkDispatched(caller vmid.VMID, outcome string, consumed uint64)

	// MarkFrameCommitted counts a call frame folded into its parent.
	MarkFrameCommitted()
	// MarkFrameRolledBack counts a call frame discarded.
	MarkFrameRolledBack()
}

type metricsImpl struct {
	numCalls         metric.CounterVec
	consumedUnits    metric.CounterVec
	framesCommitted  metric.Counter
	framesRolledBack metric.Counter
}

func New(registerer metric.Registerer) (Metrics, error) {
	m := &metricsImpl{
		numCalls: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "calls_dispatched",
				Help: "number of cross-vm calls dispatched",
			},
			callLabels,
		),
		consumedUnits: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "units_consumed",
				Help: "resource units charged to callers, in each caller's own unit",
			},
			consumedLabels,
		),
		framesCommitted: metric.NewCounter(metric.CounterOpts{
			Name: "frames_committed",
			Help: "number of call frames committed",
		}),
		framesRolledBack: metric.NewCounter(metric.CounterOpts{
			Name: "frames_rolled_back",
			Help: "number of call frames rolled back",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(metric.AsCollector(m.numCalls)),
		registerer.Register(metric.AsCollector(m.consumedUnits)),
		registerer.Register(metric.AsCollector(m.framesCommitted)),
		registerer.Register(metric.AsCollector(m.framesRolledBack)),
	)
	return m, errs.Err
}

func (m *metricsImpl) MarkDispatched(caller vmid.VMID, outcome string, consumed uint64) {
	m.numCalls.With(metric.Labels{
		vmLabel:      caller.String(),
		outcomeLabel: outcome,
	}).Inc()
	m.consumedUnits.With(metric.Labels{
		vmLabel: caller.String(),
	}).Add(float64(consumed))
}

func (m *metricsImpl) MarkFrameCommitted() {
	m.framesCommitted.Inc()
}

func (m *metricsImpl) MarkFrameRolledBack() {
	m.framesRolledBack.Inc()
}

package importer

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/assetcrawler/import-services/constants"
	"github.com/assetcrawler/import-services/models/asset"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/assetcrawler/import-services/network"
	"github.com/op/go-logging"
)

// DispatchResult describes the outcome of sending one asset.
type DispatchResult struct {
	Descriptor asset.Descriptor
	Payload    string
	Err        error
}

func (r DispatchResult) Succeeded() bool {
	return r.Err == nil
}

// DispatchCounts aggregates the results of DispatchAll.
// Attempted == Dispatched + Failed.
type DispatchCounts struct {
	Attempted  int
	Dispatched int
	Failed     int
}

func (c *DispatchCounts) add(result DispatchResult) {
	c.Attempted++
	if result.Succeeded() {
		c.Dispatched++
	} else {
		c.Failed++
	}
}

// Dispatcher wraps descriptors in import messages and sends them to a
// queue, one send per asset. It does not retry.
type Dispatcher struct {
	Logger    *logging.Logger
	Transport network.QueueTransport

	// Workers is the number of concurrent sends in DispatchAll.
	// One or less means strictly sequential, in input order.
	Workers int
}

func NewDispatcher(transport network.QueueTransport, logger *logging.Logger, workers int) *Dispatcher {
	return &Dispatcher{
		Logger:    logger,
		Transport: transport,
		Workers:   workers,
	}
}

// Dispatch sends one import message for descriptor to target. Failures
// are logged and returned in the result as *common.DispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, descriptor asset.Descriptor, target common.QueueTarget) DispatchResult {
	result := DispatchResult{Descriptor: descriptor}
	payload, err := asset.NewImportMessage(descriptor).ToJSON()
	if err != nil {
		result.Err = &common.DispatchError{Err: err, Filename: descriptor.Filename}
		d.Logger.Errorf("Cannot serialize import message for %s: %v", descriptor.Filename, err)
		dispatchesTotal.WithLabelValues(d.Transport.Name(), constants.OutcomeFailed).Inc()
		return result
	}
	result.Payload = payload

	start := time.Now()
	err = d.Transport.Send(ctx, target, payload)
	dispatchDuration.WithLabelValues(d.Transport.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		dispatchErr := &common.DispatchError{Err: err, Filename: descriptor.Filename, Payload: payload}
		result.Err = dispatchErr
		d.Logger.Errorf("Error queueing %s: %s", descriptor.Filename, dispatchErr.Detail())
		dispatchesTotal.WithLabelValues(d.Transport.Name(), constants.OutcomeFailed).Inc()
		return result
	}
	d.Logger.Infof("Message sent to %s: %s", d.Transport.Name(), payload)
	dispatchesTotal.WithLabelValues(d.Transport.Name(), constants.OutcomeDispatched).Inc()
	return result
}

// DispatchAll dispatches every descriptor in descriptors and returns
// the counts. One failed send never stops the others. If ctx is
// canceled, descriptors not yet taken are abandoned and not counted.
func (d *Dispatcher) DispatchAll(ctx context.Context, descriptors iter.Seq[asset.Descriptor], target common.QueueTarget) DispatchCounts {
	if d.Workers <= 1 {
		return d.dispatchSequential(ctx, descriptors, target)
	}
	return d.dispatchConcurrent(ctx, descriptors, target)
}

func (d *Dispatcher) dispatchSequential(ctx context.Context, descriptors iter.Seq[asset.Descriptor], target common.QueueTarget) DispatchCounts {
	counts := DispatchCounts{}
	for descriptor := range descriptors {
		if ctx.Err() != nil {
			d.Logger.Warningf("Import canceled before %s could be queued: %v", descriptor.Filename, ctx.Err())
			break
		}
		counts.add(d.Dispatch(ctx, descriptor, target))
	}
	return counts
}

func (d *Dispatcher) dispatchConcurrent(ctx context.Context, descriptors iter.Seq[asset.Descriptor], target common.QueueTarget) DispatchCounts {
	workChannel := make(chan asset.Descriptor, d.Workers)
	resultChannel := make(chan DispatchResult, d.Workers)

	var wg sync.WaitGroup
	for i := 0; i < d.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for descriptor := range workChannel {
				resultChannel <- d.Dispatch(ctx, descriptor, target)
			}
		}()
	}

	go func() {
		defer close(workChannel)
		for descriptor := range descriptors {
			select {
			case <-ctx.Done():
				d.Logger.Warningf("Import canceled before %s could be queued: %v", descriptor.Filename, ctx.Err())
				return
			case workChannel <- descriptor:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChannel)
	}()

	counts := DispatchCounts{}
	for result := range resultChannel {
		counts.add(result)
	}
	return counts
}

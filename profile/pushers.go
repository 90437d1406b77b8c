// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package profile // import "github.com/pushprof/pushprof/profile"

import "strconv"

// Typed push helpers. They are thin wrappers over PushValue,
// PushLabelStr and PushLabelInt with the same error behavior, kept so
// sampling drivers read naturally and cannot misspell a metric name.

// PushCPUTime adds elapsed on-CPU time for count occurrences.
func (p *Profile) PushCPUTime(d, count int64) error {
	return p.PushValue("cpu-time", d, count)
}

// PushWallTime adds elapsed wall-clock time for count occurrences.
func (p *Profile) PushWallTime(d, count int64) error {
	return p.PushValue("wall-time", d, count)
}

// PushException counts raised exceptions.
func (p *Profile) PushException(count int64) error {
	return p.PushValue("exception-samples", 0, count)
}

// PushExceptionType attaches the exception type label.
func (p *Profile) PushExceptionType(exceptionType string) error {
	return p.PushLabelStr(ExceptionType, exceptionType)
}

// PushExceptionInfo attaches the exception type label and counts the
// occurrences in one call.
func (p *Profile) PushExceptionInfo(exceptionType string, count int64) error {
	if err := p.PushException(count); err != nil {
		return err
	}
	return p.PushExceptionType(exceptionType)
}

// PushLockAcquire adds lock wait time for count acquisitions.
func (p *Profile) PushLockAcquire(wait, count int64) error {
	return p.PushValue("lock-acquire-wait", wait, count)
}

// PushLockRelease adds lock hold time for count releases.
func (p *Profile) PushLockRelease(hold, count int64) error {
	return p.PushValue("lock-release-hold", hold, count)
}

// PushAlloc adds size bytes allocated over count allocations. size
// already totals the sampled bytes and is not scaled by count.
func (p *Profile) PushAlloc(size, count int64) error {
	return p.PushValue("alloc-space", size, count)
}

// PushHeap adds the captured live heap size.
func (p *Profile) PushHeap(size int64) error {
	return p.PushValue("heap-space", size, 1)
}

// PushThreadInfo attaches the thread identity labels. An empty name is
// replaced with the decimal thread id so every sample carries a readable
// thread name.
func (p *Profile) PushThreadInfo(id, nativeID int64, name string) error {
	if name == "" {
		name = strconv.FormatInt(id, 10)
	}
	if err := p.PushLabelInt(ThreadID, id); err != nil {
		return err
	}
	if err := p.PushLabelInt(ThreadNativeID, nativeID); err != nil {
		return err
	}
	return p.PushLabelStr(ThreadName, name)
}

// PushTaskID attaches the runtime task id label.
func (p *Profile) PushTaskID(id int64) error {
	return p.PushLabelInt(TaskID, id)
}

// PushTaskName attaches the runtime task name label.
func (p *Profile) PushTaskName(name string) error {
	return p.PushLabelStr(TaskName, name)
}

// PushSpanID attaches the active span id. The conversion is
// bit-preserving: ids above MaxInt64 map to negative label values and
// back without loss.
func (p *Profile) PushSpanID(id uint64) error {
	return p.PushLabelInt(SpanID, int64(id))
}

// PushLocalRootSpanID attaches the local root span id, bit-preserving as
// for PushSpanID.
func (p *Profile) PushLocalRootSpanID(id uint64) error {
	return p.PushLabelInt(LocalRootSpanID, int64(id))
}

// PushTraceType attaches the trace type label.
func (p *Profile) PushTraceType(traceType string) error {
	return p.PushLabelStr(TraceType, traceType)
}

// PushTraceResourceContainer attaches the trace resource label.
func (p *Profile) PushTraceResourceContainer(container string) error {
	return p.PushLabelStr(TraceResourceContainer, container)
}

// PushClassName attaches the class name label.
func (p *Profile) PushClassName(className string) error {
	return p.PushLabelStr(ClassName, className)
}

// PushLockName attaches the lock name label.
func (p *Profile) PushLockName(lockName string) error {
	return p.PushLabelStr(LockName, lockName)
}

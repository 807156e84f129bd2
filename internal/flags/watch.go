package flags

// Change subscription. The store's Changes channel signals after any
// mutation, including ones made by another process; the registry
// re-resolves the catalog on each signal and notifies subscribers only for
// flags whose resolved value actually changed, so duplicate store signals
// are harmless.

// Subscribe registers fn to be called with the new status of any flag whose
// resolved value changes. The returned func detaches the subscriber.
// Callbacks run on the registry's watch goroutine; they must not block.
func (r *Registry) Subscribe(fn func(Status)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.ensureWatcherLocked()
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Watch returns a channel carrying the flag's resolved value: the current
// value immediately, then the new value after every change. The channel
// always holds the latest value; slow readers see only the most recent
// state. The returned func stops the watch.
func (r *Registry) Watch(key string) (<-chan bool, func()) {
	ch := make(chan bool, 1)
	push := func(v bool) {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}

	push(r.IsEnabled(key))
	unsubscribe := r.Subscribe(func(st Status) {
		if st.Key == key {
			push(st.Enabled)
		}
	})
	return ch, unsubscribe
}

// Close stops the watch goroutine. Subscribers are no longer notified;
// the store handle is not closed.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watching {
		close(r.stop)
		r.watching = false
	}
}

// ensureWatcherLocked starts the fan-out goroutine on first subscription.
func (r *Registry) ensureWatcherLocked() {
	if r.watching {
		return
	}
	r.watching = true
	r.lastSeen = r.snapshot()
	go r.watch()
}

func (r *Registry) watch() {
	changes := r.store.Changes()
	for {
		select {
		case <-r.stop:
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			r.notifyChanged()
		}
	}
}

// notifyChanged diffs the current resolution against the last seen state
// and fans changed flags out to subscribers.
func (r *Registry) notifyChanged() {
	r.mu.Lock()
	var changed []Status
	for _, f := range catalog {
		st := r.resolve(f)
		if prev, ok := r.lastSeen[f.Key]; !ok || prev != st.Enabled {
			r.lastSeen[f.Key] = st.Enabled
			changed = append(changed, st)
		}
	}
	subs := make([]func(Status), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, st := range changed {
		for _, fn := range subs {
			fn(st)
		}
	}
}

func (r *Registry) snapshot() map[string]bool {
	m := make(map[string]bool, len(catalog))
	for _, f := range catalog {
		m[f.Key] = r.resolve(f).Enabled
	}
	return m
}

package engine

// Callback is program code run in response to an event
type Callback func() error

// ColorListener fires when the sensed color comes close to Color
type ColorListener struct {
	Color     string
	Callback  Callback
	LastMatch bool
}

// ObstacleListener fires when the touch sensor engages
type ObstacleListener struct {
	Callback  Callback
	LastMatch bool
}

// DistanceListener fires when the range reading drops below Threshold
type DistanceListener struct {
	Threshold float64
	Callback  Callback
	LastMatch bool
}

// Listeners holds everything a running program has subscribed to
type Listeners struct {
	colors    []ColorListener
	obstacles []ObstacleListener
	distances []DistanceListener
	messages  map[string][]Callback
}

// OnColor registers a color listener; it starts unmatched
func (l *Listeners) OnColor(color string, cb Callback) {
	l.colors = append(l.colors, ColorListener{Color: color, Callback: cb})
}

// OnObstacle registers a touch listener; it starts unmatched
func (l *Listeners) OnObstacle(cb Callback) {
	l.obstacles = append(l.obstacles, ObstacleListener{Callback: cb})
}

// OnDistance registers a range listener; it starts unmatched
func (l *Listeners) OnDistance(threshold float64, cb Callback) {
	l.distances = append(l.distances, DistanceListener{Threshold: threshold, Callback: cb})
}

// OnMessage subscribes a handler to a named topic
func (l *Listeners) OnMessage(name string, cb Callback) {
	if l.messages == nil {
		l.messages = make(map[string][]Callback)
	}
	l.messages[name] = append(l.messages[name], cb)
}

// MessageHandlers returns a copy of the handlers subscribed to name
func (l *Listeners) MessageHandlers(name string) []Callback {
	handlers := l.messages[name]
	out := make([]Callback, len(handlers))
	copy(out, handlers)
	return out
}

// Evaluate recomputes every listener condition against a snapshot and
// returns the callbacks whose condition went from false to true.
func (l *Listeners) Evaluate(s SensorSnapshot) []Callback {
	var fired []Callback

	for i := range l.colors {
		c := &l.colors[i]
		match := IsColorClose(s.Color, c.Color, DefaultColorThreshold)
		if match && !c.LastMatch {
			fired = append(fired, c.Callback)
		}
		c.LastMatch = match
	}

	for i := range l.obstacles {
		o := &l.obstacles[i]
		if s.Touching && !o.LastMatch {
			fired = append(fired, o.Callback)
		}
		o.LastMatch = s.Touching
	}

	for i := range l.distances {
		d := &l.distances[i]
		match := s.Distance < d.Threshold
		if match && !d.LastMatch {
			fired = append(fired, d.Callback)
		}
		d.LastMatch = match
	}

	return fired
}

// Counts summarizes the registry
func (l *Listeners) Counts() ListenerCounts {
	messages := 0
	for _, handlers := range l.messages {
		messages += len(handlers)
	}
	return ListenerCounts{
		Colors:    len(l.colors),
		Obstacles: len(l.obstacles),
		Distances: len(l.distances),
		Messages:  messages,
	}
}

// Clear drops every listener and message subscription
func (l *Listeners) Clear() {
	l.colors = nil
	l.obstacles = nil
	l.distances = nil
	l.messages = nil
}

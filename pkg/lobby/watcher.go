package lobby

// Watcher receives session snapshots as the session changes.
// It is the bridge between the lobby and a connected client (e.g., a
// websocket); the lobby never blocks on a slow watcher.
type Watcher struct {
	// PlayerID determines how snapshots sent to this watcher are masked
	PlayerID int64

	// Close signals the watcher should disconnect, with a reason
	Close chan string

	send chan interface{}
}

// NewWatcher returns a new watcher for the given player
func NewWatcher(playerID int64) *Watcher {
	return &Watcher{
		PlayerID: playerID,
		Close:    make(chan string, 1),
		send:     make(chan interface{}, 256),
	}
}

// Send queues a message for the watcher
// If the watcher's buffer is full, the message is dropped and false is returned
func (w *Watcher) Send(msg interface{}) bool {
	select {
	case w.send <- msg:
		return true
	default:
		return false
	}
}

// Messages returns a read-only channel of queued messages
func (w *Watcher) Messages() <-chan interface{} {
	return w.send
}

func (w *Watcher) requestClose(reason string) {
	select {
	case w.Close <- reason:
	default:
	}
}

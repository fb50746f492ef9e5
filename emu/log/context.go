package log

import "sync"

// A Context adds fields to every log entry, for instance the current program
// counter of the emulated CPU.
type Context interface {
	AddLogContext(entry *EntryZ)
}

var (
	ctxmu    sync.RWMutex
	contexts []Context
)

func AddContext(ctx Context) {
	ctxmu.Lock()
	contexts = append(contexts, ctx)
	ctxmu.Unlock()
}

func RemoveContext(ctx Context) {
	ctxmu.Lock()
	defer ctxmu.Unlock()
	for i, c := range contexts {
		if c == ctx {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}

func addContexts(z *EntryZ) {
	ctxmu.RLock()
	for _, c := range contexts {
		c.AddLogContext(z)
	}
	ctxmu.RUnlock()
}

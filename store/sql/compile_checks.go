package sqlstore

import "github.com/goliatone/go-contact-relay/core"

var (
	_ core.ActivityRecorder = (*ActivityStore)(nil)
	_ core.ActivityReader   = (*ActivityStore)(nil)
	_ core.ActivityRecorder = (*CachedActivityStore)(nil)
	_ core.ActivityReader   = (*CachedActivityStore)(nil)
)

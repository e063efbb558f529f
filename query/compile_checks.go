package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-contact-relay/core"
)

var _ gocmd.Querier[ListActivityMessage, []core.ActivityEntry] = (*ListActivityQuery)(nil)

package frontiermanager

import (
	"github.com/kaspanet/merkleclock/infrastructure/logger"
)

var log = logger.RegisterSubSystem("FRNT")

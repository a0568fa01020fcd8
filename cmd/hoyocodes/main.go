package main

import (
	"context"

	"hoyocodes/cmd/hoyocodes/commands"
	"hoyocodes/lib/osutil"
)

func main() {
	ctx := osutil.SignalContext(context.Background())
	commands.ExecuteContext(ctx)
}

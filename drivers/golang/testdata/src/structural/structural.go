package structural

import "lib"

func use(cfg lib.Config, o lib.Other) {
	_ = cfg.Host // want `Reference to member will break: lib.Config.Host`
	_ = o.Host
}

func keep(cl *lib.Client) {
	_ = cl.Keep() // want `Reference to member will break: lib.Client.Keep`
}

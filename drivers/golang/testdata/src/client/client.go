package client

import "lib"

func use() {
	cfg := lib.Config{}
	_ = cfg.Port

	_ = cfg.Host // want `Reference to member will break: lib.Config.Host`

	cl := lib.Open() // want `Reference to member will break: lib.Open`

	_ = cl.Host // want `Reference to member will break: lib.Config.Host`

	_ = cl.Config.Host // want `Reference to member will break: lib.Config.Host`

	_ = cl.Do() // want `Reference to member will break: lib.Client.Do`

	_ = cl.Keep()

	do := cl.Do // want `Reference to member will break: lib.Client.Do`

	_ = do

	_ = (*lib.Client).Do // want `Reference to member will break: lib.Client.Do`

	b := lib.Box[int]{}

	_ = b.Value // want `Reference to member will break: lib.Box.Value`

	o := lib.Other{}
	_ = o.Host
}

// Package xover embeds the crossover engine in a Go program.
//
// The client reads daily along-track files, finds the crossovers of each
// requested day and writes them next to the inputs, exactly as the xover
// service does, without the HTTP layer.
//
//	client, _ := xover.New(ctx,
//	    xover.WithDailyFiles("/data/daily"),
//	    xover.WithCrossoversDir("/data/xovers"),
//	    xover.WithSatellite("S6", xover.Satellite{RawSSH: true, UseFlag: true}),
//	)
//	defer client.Close()
//
//	day, _ := client.ProcessDay(ctx, xover.Job{
//	    Day: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Source: "GSFC", Source2: "S6", Version: "p3",
//	})
//	rows, meta, _ := client.Crossovers(ctx, "p3", "GSFC", "S6", day.Day)
//
// Stage bookkeeping is enabled with WithRedis.
package xover

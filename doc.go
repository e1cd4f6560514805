// Package demoup launches a local demo: a backend server on a free port and
// a static frontend opened in the default browser.
//
// A session picks a port (searching upward from a start port, or a pinned
// one), terminates stray processes still bound to it, starts the backend
// with the port in its PORT environment variable, waits until the port
// accepts connections, opens the frontend, and then blocks until it is asked
// to stop. Shutdown terminates the backend gracefully and force kills it
// when the grace period runs out.
//
// # Basic Usage
//
//	import "github.com/giantswarm/demoup"
//
//	ctx, stop := demoup.NotifyContext(context.Background())
//	defer stop()
//
//	if err := demoup.CheckEnvironment(ctx, demoup.WithRoot(dir)); err != nil {
//	    log.Fatal(err)
//	}
//
//	sup, err := demoup.New(demoup.WithRoot(dir))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := sup.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Run returns nil once the context is canceled or Stop is called, and an
// error when startup fails or the backend exits on its own.
//
// # Layout
//
// Relative paths are resolved against the root directory (WithRoot, default
// the working directory). The defaults expect:
//
//	backend/start_server.py   backend entry point
//	backend/.env              optional extra environment for the backend
//	ai-projects.html          page opened in the browser
//	logs/                     backend output captures and the run lock
package demoup

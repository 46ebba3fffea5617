// Package grclookup resolves platform record ids from human-readable input:
// an application name, a field display name and one or more field values.
//
// A Client opens one platform session and keeps its metadata caches and the
// fast-search capability outcome for the session's lifetime.
//
//	client, err := grclookup.New(ctx,
//	    grclookup.WithArcher("https://grc.example.com", "Prod"),
//	    grclookup.WithCredentials("svc-lookup", "", os.Getenv("ARCHER_PASSWORD")),
//	)
//	id, found, err := client.LookupOne(ctx, "Incidents", "Ticket Number", "INC-12345")
//
// Bulk lookups return one entry per distinct input value:
//
//	res, err := client.LookupMany(ctx, "Incidents", "Ticket Number", tickets)
//	var amb *grclookup.AmbiguousMatchError
//	if errors.As(err, &amb) {
//	    for _, m := range amb.Matches {
//	        log.Printf("%s matched %v", m.Value, m.IDs)
//	    }
//	}
package grclookup

package application

// Endpoint is the content API entity set that exposes an application's records.
type Endpoint struct {
	Name string
	URL  string
}

// IDProperty is the record id property the content API names after the endpoint.
func (e Endpoint) IDProperty() string { return e.URL + "_Id" }

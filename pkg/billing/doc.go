// Package billing is the narrow port to the payment provider.
//
// The application identity (auth.Identity.Subject) and the provider's
// customer handle are distinct values: the Provider maps one to the
// other explicitly via EnsureCustomer, and nothing else in the codebase
// treats an email or a subject as a provider handle.
//
// Provider failures are collaborator failures: the Service catches them
// at this boundary and returns wrapped errors the HTTP layer turns into
// graceful degradation, never raw provider exceptions.
package billing

// Package validation applies a merged schema to submitted form values.
//
// This package contains the functional core logic for validating form
// submissions. All functions are pure (no I/O, no side effects): raw values
// go in, a Result comes out.
//
// # Functions
//
//   - Validate: Apply every rule of a schema.MergedSchema to raw form values
//   - ValidateImage: Check the primary image upload against an ImagePolicy
//   - ValidateForm: Both of the above, folded into one Result
//
// # Usage
//
// The API handlers decode the multipart form, merge the tenant's schema, and
// validate before touching the store:
//
//	result := validation.ValidateForm(merged, r.MultipartForm.Value, upload, policy)
//	if !result.IsValid() {
//	    // Return 422 with result.Errors
//	}
//
// Invalid input is an ordinary result, never an error return or a panic.
// Every failing field is reported in one pass.
package validation

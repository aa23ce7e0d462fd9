// Package databank talks to the external data bank that receives finished
// corpus files. Uploads are multipart POSTs authenticated with an API key;
// every failure mode maps to a stable code stored on the job.
package databank

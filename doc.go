// Copyright 2026 The sheets-relay Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package sheets is the root of sheets-relay, a thin HTTP backend between a web client, Google Drive/Sheets and an n8n workflow.

Users sign in with Google and the resulting tokens are carried in a signed session cookie. With the session the
client can copy a spreadsheet, upload a CSV or Excel file as a new (optionally public) spreadsheet and read a range
as header-keyed records. Uploaded spreadsheet IDs are forwarded to a workflow callback URL. A shared-secret webhook
lets the workflow read ranges back with a service account.

sheets-relay supports the following commands:

  - run, to run the HTTP server
  - get, to download a Google Sheets range as a TSV or JSON file using the service account
  - upload, to upload a CSV or Excel file as a spreadsheet using the service account
  - authorise, to verify the service account credentials
  - version, to display the version
*/
package sheets

// Package manifest reads YAML declarations of configuration variables and
// resolves them against an engine. It lets the command line tool report on
// variables without importing the application that declares them.
//
//	variables:
//	  - name: DATABASE_URL
//	    default: postgres://localhost/app
//	    desc: primary database
//	  - name: API_KEY
//	    secret: true
//	    file_var: API_KEY_FILE
package manifest

// Package search implements the two-tier photo search used by every sparks
// interface.
//
// # Strategy
//
// A search first runs against the preferred account (the British Library by
// default). Only when that call yields zero usable photos is a second,
// unrestricted search issued, filtered by the Creative Commons license
// allow-list instead of an account. Photos without a large image URL are
// dropped from both result sets before the emptiness check.
//
// Fallback answers "no results", never "call failed": an error from the
// preferred call is returned immediately, wrapped in a CallError naming the
// source that failed.
//
// # Usage
//
//	svc := search.NewService(client, search.Options{
//		PreferredUserID: flickr.BritishLibraryUserID,
//		PreferredLabel:  "British Library",
//		GlobalLabel:     "all Flickr",
//	})
//	res, err := svc.Search(ctx, search.Params{Query: "lighthouse", Count: 5})
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.SourceLabel, len(res.Photos))
//
// Web and API handlers build Params from query strings with ParseParams,
// which applies the configured count range.
package search

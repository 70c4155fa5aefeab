package upstream

import "github.com/qwezhou/AAA-Code/internal/core/domain"

// The deployed GraphQL schemas differ between environments, so query shapes
// are detected at call time: each operation below is an ordered list of
// variants tried in sequence by GraphQLWithFallback. Later variants alias the
// regional field names onto the canonical ones so the decoded JSON stays
// uniform.

const userStatusQueryPrimary = `
query globalData {
  userStatus {
    userId
    username
    avatar
    isSignedIn
    isPremium
    isVerified
    activeSessionId
  }
}`

const userStatusQuerySecondary = `
query globalData {
  userStatus {
    username
    realName
    userSlug
    avatar
    isSignedIn
    isPremium
    isVerified
  }
}`

// UserStatusQuery picks the user-status shape for the given domain. This is a
// single query per domain, not a fallback pair: the two deployments never
// accept each other's shape.
func UserStatusQuery(target domain.Domain) string {
	if target == domain.DomainSecondary {
		return userStatusQuerySecondary
	}
	return userStatusQueryPrimary
}

const problemListQueryTranslated = `
query problemsetQuestionList($categorySlug: String, $limit: Int, $skip: Int, $filters: QuestionListFilterInput) {
  problemsetQuestionList: questionList(categorySlug: $categorySlug, limit: $limit, skip: $skip, filters: $filters) {
    total: totalNum
    questions: data {
      questionId
      questionFrontendId
      title
      translatedTitle
      titleSlug
      isPaidOnly
      difficulty
      status
      acRate
    }
  }
}`

const problemListQueryTitleCn = `
query problemsetQuestionList($categorySlug: String, $limit: Int, $skip: Int, $filters: QuestionListFilterInput) {
  problemsetQuestionList: questionList(categorySlug: $categorySlug, limit: $limit, skip: $skip, filters: $filters) {
    total: totalNum
    questions: data {
      questionId
      questionFrontendId
      title
      translatedTitle: titleCn
      titleSlug
      isPaidOnly
      difficulty
      status
      acRate
    }
  }
}`

// ProblemListQueries is the ordered variant list for the catalog query.
var ProblemListQueries = []string{problemListQueryTranslated, problemListQueryTitleCn}

const problemDetailQueryTranslated = `
query questionData($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    questionId
    questionFrontendId
    title
    translatedTitle
    titleSlug
    isPaidOnly
    difficulty
    likes
    dislikes
    content
    translatedContent
    exampleTestcaseList
    topicTags {
      name
      slug
    }
    codeSnippets {
      lang
      langSlug
      code
    }
  }
}`

const problemDetailQueryTitleCn = `
query questionData($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    questionId
    questionFrontendId
    title
    translatedTitle: titleCn
    titleSlug
    isPaidOnly
    difficulty
    likes
    dislikes
    content
    translatedContent: contentCn
    exampleTestcaseList
    topicTags {
      name
      slug
    }
    codeSnippets {
      lang
      langSlug
      code
    }
  }
}`

// ProblemDetailQueries is the ordered variant list for the single-problem query.
var ProblemDetailQueries = []string{problemDetailQueryTranslated, problemDetailQueryTitleCn}
